package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/repositories/memory"
	"hotelops/internal/repositories/sqldb"
	"hotelops/internal/utils"
	"hotelops/internal/validators"
	"hotelops/pkg/database"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, event := range p.events {
		types[i] = event.Type
	}
	return types
}

type testEnv struct {
	rideRequests RideRequestService
	trips        TripService
	incidents    IncidentService
	publisher    *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	requestRepo := memory.NewRideRequestRepository()
	tripRepo := memory.NewTripRepository()
	incidentRepo := memory.NewIncidentRepository()
	publisher := &recordingPublisher{}
	log := logger.NewNopLogger()

	return &testEnv{
		rideRequests: NewRideRequestService(requestRepo, tripRepo, publisher, log),
		trips:        NewTripService(tripRepo, requestRepo, nil, 0, publisher, log),
		incidents:    NewIncidentService(incidentRepo, tripRepo, publisher, log),
		publisher:    publisher,
	}
}

func (e *testEnv) createRequest(t *testing.T, clientID int64, pickup, dropoff string) *models.RideRequest {
	t.Helper()
	request, err := e.rideRequests.Create(context.Background(), &validators.CreateRideRequestRequest{
		ClientID: clientID,
		Pickup:   pickup,
		Dropoff:  dropoff,
	})
	if err != nil {
		t.Fatalf("create ride request: %v", err)
	}
	return request
}

func (e *testEnv) acceptedRequest(t *testing.T, clientID int64) *models.RideRequest {
	t.Helper()
	request := e.createRequest(t, clientID, "Hotel", "Gare")
	accepted, err := e.rideRequests.ChangeStatus(context.Background(), request.ID, string(models.RideRequestStatusAccepted))
	if err != nil {
		t.Fatalf("accept ride request: %v", err)
	}
	return accepted
}

func schedule(pickup time.Time, length time.Duration) *validators.CreateTripRequest {
	dropoff := pickup.Add(length)
	return &validators.CreateTripRequest{PickupAt: &pickup, DropoffAt: &dropoff}
}

func newTrip(rideRequestID int64, pickup time.Time) *validators.CreateTripRequest {
	req := schedule(pickup, 45*time.Minute)
	req.RideRequestID = rideRequestID
	return req
}

func assertKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := utils.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestRideRequestRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.createRequest(t, 7, "Gare", "Aéroport")

	fetched, err := env.rideRequests.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != models.RideRequestStatusPending {
		t.Errorf("expected status %s, got %s", models.RideRequestStatusPending, fetched.Status)
	}
	if fetched.Pickup != "Gare" || fetched.Dropoff != "Aéroport" {
		t.Errorf("locations changed: %q -> %q", fetched.Pickup, fetched.Dropoff)
	}
	if fetched.Trip != nil {
		t.Errorf("expected no trip, got %+v", fetched.Trip)
	}
}

func TestRideRequestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *validators.CreateRideRequestRequest
	}{
		{"missing client", &validators.CreateRideRequestRequest{Pickup: "A", Dropoff: "B"}},
		{"blank pickup", &validators.CreateRideRequestRequest{ClientID: 1, Pickup: "   ", Dropoff: "B"}},
		{"same locations", &validators.CreateRideRequestRequest{ClientID: 1, Pickup: "Gare", Dropoff: " gare "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.rideRequests.Create(ctx, tt.req)
			assertKind(t, err, utils.KindValidation)
		})
	}
}

func TestRideRequestGetByIDAttachesTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.acceptedRequest(t, 3)
	trip, err := env.trips.Create(ctx, 11, newTrip(request.ID, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	fetched, err := env.rideRequests.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Trip == nil || fetched.Trip.ID != trip.ID {
		t.Fatalf("expected trip %d attached, got %+v", trip.ID, fetched.Trip)
	}

	_, err = env.rideRequests.GetByID(ctx, 999)
	assertKind(t, err, utils.KindNotFound)
	_, err = env.rideRequests.GetByID(ctx, 0)
	assertKind(t, err, utils.KindValidation)
}

func TestRideRequestStatusIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, status := range []models.RideRequestStatus{
		models.RideRequestStatusAccepted,
		models.RideRequestStatusRefused,
		models.RideRequestStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			request := env.createRequest(t, 1, "A", "B")

			changed, err := env.rideRequests.ChangeStatus(ctx, request.ID, string(status))
			if err != nil {
				t.Fatalf("first change: %v", err)
			}
			if changed.Status != status {
				t.Fatalf("expected %s, got %s", status, changed.Status)
			}

			for _, next := range []string{"acceptee", "refusee", "annulee"} {
				_, err := env.rideRequests.ChangeStatus(ctx, request.ID, next)
				assertKind(t, err, utils.KindValidation)
			}

			pickup := "C"
			_, err = env.rideRequests.Update(ctx, request.ID, &validators.UpdateRideRequestRequest{Pickup: &pickup})
			assertKind(t, err, utils.KindValidation)
		})
	}
}

func TestRideRequestChangeStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	request := env.createRequest(t, 1, "A", "B")

	for _, status := range []string{"en_attente", "termine", ""} {
		_, err := env.rideRequests.ChangeStatus(context.Background(), request.ID, status)
		assertKind(t, err, utils.KindValidation)
	}

	_, err := env.rideRequests.ChangeStatus(context.Background(), 404, "acceptee")
	assertKind(t, err, utils.KindNotFound)
}

func TestRideRequestUpdateMergesLocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t, 1, "Hotel", "Gare")

	dropoff := "Aéroport"
	updated, err := env.rideRequests.Update(ctx, request.ID, &validators.UpdateRideRequestRequest{Dropoff: &dropoff})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Pickup != "Hotel" || updated.Dropoff != "Aéroport" {
		t.Fatalf("unexpected locations %q -> %q", updated.Pickup, updated.Dropoff)
	}

	same := "hotel"
	_, err = env.rideRequests.Update(ctx, request.ID, &validators.UpdateRideRequestRequest{Dropoff: &same})
	assertKind(t, err, utils.KindValidation)

	_, err = env.rideRequests.Update(ctx, request.ID, &validators.UpdateRideRequestRequest{})
	assertKind(t, err, utils.KindValidation)

	_, err = env.rideRequests.Update(ctx, 999, &validators.UpdateRideRequestRequest{Dropoff: &dropoff})
	assertKind(t, err, utils.KindNotFound)
}

func TestRideRequestListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := env.rideRequests.(*rideRequestService)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	svc.clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	first := env.createRequest(t, 1, "A", "B")
	second := env.createRequest(t, 1, "C", "D")
	other := env.createRequest(t, 2, "E", "F")
	if _, err := env.rideRequests.ChangeStatus(ctx, second.ID, "refusee"); err != nil {
		t.Fatalf("refuse: %v", err)
	}

	mine, err := env.rideRequests.GetByClient(ctx, 1, RideRequestFilters{})
	if err != nil {
		t.Fatalf("GetByClient: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("expected newest first [%d %d], got %v", second.ID, first.ID, ids(mine))
	}

	refused, err := env.rideRequests.GetByClient(ctx, 1, RideRequestFilters{Status: "refusee"})
	if err != nil {
		t.Fatalf("GetByClient with status: %v", err)
	}
	if len(refused) != 1 || refused[0].ID != second.ID {
		t.Fatalf("expected only %d, got %v", second.ID, ids(refused))
	}

	_, err = env.rideRequests.GetByClient(ctx, 1, RideRequestFilters{Status: "unknown"})
	assertKind(t, err, utils.KindValidation)

	_, err = env.rideRequests.GetByClient(ctx, 3, RideRequestFilters{})
	assertKind(t, err, utils.KindNotFound)

	dateMin, dateMax := base.Add(3*time.Hour), base
	_, err = env.rideRequests.GetByClient(ctx, 1, RideRequestFilters{DateMin: &dateMin, DateMax: &dateMax})
	assertKind(t, err, utils.KindValidation)

	pending, err := env.rideRequests.GetPending(ctx, RideRequestFilters{})
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != other.ID {
		t.Fatalf("expected oldest first [%d %d], got %v", first.ID, other.ID, ids(pending))
	}
}

func TestRideRequestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t, 1, "A", "B")

	if err := env.rideRequests.Delete(ctx, request.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := env.rideRequests.GetByID(ctx, request.ID)
	assertKind(t, err, utils.KindNotFound)
	assertKind(t, env.rideRequests.Delete(ctx, request.ID), utils.KindNotFound)

	got := env.publisher.types()
	if got[len(got)-1] != events.RideRequestDeleted {
		t.Fatalf("expected last event %s, got %v", events.RideRequestDeleted, got)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")

	request := env.createRequest(t, 1, "A", "B")
	if request.ID == 0 {
		t.Fatal("expected request to be stored")
	}
}

func TestTripLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const driverID, otherDriverID = 21, 22

	request := env.createRequest(t, 5, "A", "B")
	if request.Status != models.RideRequestStatusPending {
		t.Fatalf("expected pending request, got %s", request.Status)
	}

	_, err := env.trips.Create(ctx, driverID, newTrip(request.ID, time.Now().Add(time.Hour)))
	assertKind(t, err, utils.KindConflict)

	if _, err := env.rideRequests.ChangeStatus(ctx, request.ID, "acceptee"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	trip, err := env.trips.Create(ctx, driverID, newTrip(request.ID, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if trip.Status != models.TripStatusPending {
		t.Fatalf("expected pending trip, got %s", trip.Status)
	}

	started, err := env.trips.ChangeStatus(ctx, trip.ID, "en_cours", driverID)
	if err != nil {
		t.Fatalf("start trip: %v", err)
	}
	if started.Status != models.TripStatusInProgress {
		t.Fatalf("expected %s, got %s", models.TripStatusInProgress, started.Status)
	}

	_, err = env.trips.ChangeStatus(ctx, trip.ID, "termine", otherDriverID)
	assertKind(t, err, utils.KindPermission)
}

func TestTripCreateOncePerRideRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	request := env.acceptedRequest(t, 1)

	if _, err := env.trips.Create(ctx, 1, newTrip(request.ID, time.Now())); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := env.trips.Create(ctx, 2, newTrip(request.ID, time.Now()))
	assertKind(t, err, utils.KindConflict)

	_, err = env.trips.Create(ctx, 1, newTrip(999, time.Now()))
	assertKind(t, err, utils.KindNotFound)

	pickup := time.Now()
	req := schedule(pickup, -time.Minute)
	req.RideRequestID = request.ID
	_, err = env.trips.Create(ctx, 1, req)
	assertKind(t, err, utils.KindValidation)
}

// tripStores returns a fresh pair of stores for one concurrent-create attempt.
type tripStores func(t *testing.T, attempt int) (interfaces.RideRequestRepository, interfaces.TripRepository)

func memoryTripStores(*testing.T, int) (interfaces.RideRequestRepository, interfaces.TripRepository) {
	return memory.NewRideRequestRepository(), memory.NewTripRepository()
}

func sqliteTripStores(t *testing.T, attempt int) (interfaces.RideRequestRepository, interfaces.TripRepository) {
	t.Helper()
	db, err := database.NewGormDB(&database.SQLConfig{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), attempt),
		// sqlite takes one writer at a time
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.CloseGormDB(db) })
	if err := sqldb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqldb.NewRideRequestRepository(db), sqldb.NewTripRepository(db)
}

func assertExactlyOneTripCreated(t *testing.T, attempts int, stores tripStores) {
	t.Helper()
	log := logger.NewNopLogger()

	for attempt := 0; attempt < attempts; attempt++ {
		requestRepo, tripRepo := stores(t, attempt)
		rideRequests := NewRideRequestService(requestRepo, tripRepo, events.NewNopPublisher(), log)
		trips := NewTripService(tripRepo, requestRepo, nil, 0, events.NewNopPublisher(), log)

		request, err := rideRequests.Create(context.Background(), &validators.CreateRideRequestRequest{ClientID: 1, Pickup: "Gare", Dropoff: "Port"})
		if err != nil {
			t.Fatalf("create ride request: %v", err)
		}
		if _, err := rideRequests.ChangeStatus(context.Background(), request.ID, string(models.RideRequestStatusAccepted)); err != nil {
			t.Fatalf("accept: %v", err)
		}

		const callers = 8
		var wg sync.WaitGroup
		errs := make([]error, callers)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = trips.Create(context.Background(), int64(i+1), newTrip(request.ID, time.Now()))
			}(i)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assertKind(t, err, utils.KindConflict)
		}
		if succeeded != 1 {
			t.Fatalf("attempt %d: expected exactly one success, got %d", attempt, succeeded)
		}

		stored, err := tripRepo.GetByRideRequestID(context.Background(), request.ID)
		if err != nil || stored == nil {
			t.Fatalf("attempt %d: expected the winning trip in the store, got %v", attempt, err)
		}
	}
}

func TestTripConcurrentCreateExactlyOneWins(t *testing.T) {
	assertExactlyOneTripCreated(t, 20, memoryTripStores)
}

func TestTripConcurrentCreateExactlyOneWinsOnSQLite(t *testing.T) {
	assertExactlyOneTripCreated(t, 5, sqliteTripStores)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}

func TestTripCreateHonoursLock(t *testing.T) {
	requestRepo := memory.NewRideRequestRepository()
	tripRepo := memory.NewTripRepository()
	locker := &fakeLocker{held: map[string]bool{}}
	log := logger.NewNopLogger()
	rideRequests := NewRideRequestService(requestRepo, tripRepo, events.NewNopPublisher(), log)
	trips := NewTripService(tripRepo, requestRepo, locker, time.Second, events.NewNopPublisher(), log)
	ctx := context.Background()

	request, err := rideRequests.Create(ctx, &validators.CreateRideRequestRequest{ClientID: 1, Pickup: "A", Dropoff: "B"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := rideRequests.ChangeStatus(ctx, request.ID, "acceptee"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	key := utils.LockTripCreationPrefix + "1"
	locker.held[key] = true
	_, err = trips.Create(ctx, 1, newTrip(request.ID, time.Now()))
	assertKind(t, err, utils.KindConflict)

	delete(locker.held, key)
	if _, err := trips.Create(ctx, 1, newTrip(request.ID, time.Now())); err != nil {
		t.Fatalf("create with free lock: %v", err)
	}
	if locker.held[key] {
		t.Fatal("expected lock to be released")
	}
}

func TestTripUpdateSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const clientID, driverID = 4, 9

	request := env.acceptedRequest(t, clientID)
	trip, err := env.trips.Create(ctx, driverID, newTrip(request.ID, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	pickup := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	dropoff := pickup.Add(30 * time.Minute)
	next := &validators.TripScheduleRequest{PickupAt: &pickup, DropoffAt: &dropoff}

	_, err = env.trips.UpdateSchedule(ctx, trip.ID, clientID+1, next)
	assertKind(t, err, utils.KindPermission)

	updated, err := env.trips.UpdateSchedule(ctx, trip.ID, clientID, next)
	if err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if !updated.PickupAt.Equal(pickup) || !updated.DropoffAt.Equal(dropoff) {
		t.Fatalf("schedule not applied: %+v", updated)
	}

	inverted := &validators.TripScheduleRequest{PickupAt: &dropoff, DropoffAt: &pickup}
	_, err = env.trips.UpdateSchedule(ctx, trip.ID, clientID, inverted)
	assertKind(t, err, utils.KindValidation)

	if _, err := env.trips.ChangeStatus(ctx, trip.ID, "en_cours", driverID); err != nil {
		t.Fatalf("start trip: %v", err)
	}
	_, err = env.trips.UpdateSchedule(ctx, trip.ID, clientID, next)
	assertKind(t, err, utils.KindConflict)

	_, err = env.trips.UpdateSchedule(ctx, 999, clientID, next)
	assertKind(t, err, utils.KindNotFound)
}

func TestTripStatusMovesForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const driverID = 3

	request := env.acceptedRequest(t, 1)
	trip, err := env.trips.Create(ctx, driverID, newTrip(request.ID, time.Now()))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	_, err = env.trips.ChangeStatus(ctx, trip.ID, "termine", driverID)
	assertKind(t, err, utils.KindConflict)
	_, err = env.trips.ChangeStatus(ctx, trip.ID, "en_route", driverID)
	assertKind(t, err, utils.KindValidation)

	for _, status := range []string{"en_cours", "termine"} {
		if _, err := env.trips.ChangeStatus(ctx, trip.ID, status, driverID); err != nil {
			t.Fatalf("move to %s: %v", status, err)
		}
	}

	for _, status := range []string{"en_attente", "en_cours", "termine"} {
		_, err := env.trips.ChangeStatus(ctx, trip.ID, status, driverID)
		assertKind(t, err, utils.KindConflict)
	}
}

func TestTripGetByIDChecksDriver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.acceptedRequest(t, 1)
	trip, err := env.trips.Create(ctx, 5, newTrip(request.ID, time.Now()))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	if _, err := env.trips.GetByID(ctx, trip.ID, 5); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	_, err = env.trips.GetByID(ctx, trip.ID, 6)
	assertKind(t, err, utils.KindPermission)
	_, err = env.trips.GetByID(ctx, 999, 5)
	assertKind(t, err, utils.KindNotFound)
}

func TestTripPlanningByDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const driverID = 8

	day := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	pickups := []time.Time{
		day.Add(24*time.Hour + 9*time.Hour),
		day.Add(14 * time.Hour),
		day.Add(8 * time.Hour),
		day.Add(5 * 24 * time.Hour),
	}
	for _, pickup := range pickups {
		request := env.acceptedRequest(t, 1)
		if _, err := env.trips.Create(ctx, driverID, newTrip(request.ID, pickup)); err != nil {
			t.Fatalf("create trip: %v", err)
		}
	}

	dateMin, dateMax := day, day.Add(2*24*time.Hour)
	planning, err := env.trips.GetPlanningByDay(ctx, driverID, &dateMin, &dateMax)
	if err != nil {
		t.Fatalf("GetPlanningByDay: %v", err)
	}
	if len(planning) != 2 {
		t.Fatalf("expected 2 days, got %d", len(planning))
	}
	if planning[0].Date != "2026-06-10" || len(planning[0].Trips) != 2 {
		t.Fatalf("unexpected first day %s with %d trips", planning[0].Date, len(planning[0].Trips))
	}
	if !planning[0].Trips[0].PickupAt.Before(planning[0].Trips[1].PickupAt) {
		t.Fatal("expected trips within a day ordered by pickup time")
	}
	if planning[1].Date != "2026-06-11" || len(planning[1].Trips) != 1 {
		t.Fatalf("unexpected second day %s with %d trips", planning[1].Date, len(planning[1].Trips))
	}

	_, err = env.trips.GetPlanningByDay(ctx, driverID, &dateMin, nil)
	assertKind(t, err, utils.KindValidation)
	_, err = env.trips.GetPlanningByDay(ctx, driverID, &dateMax, &dateMin)
	assertKind(t, err, utils.KindValidation)

	empty := day.Add(30 * 24 * time.Hour)
	emptyEnd := empty.Add(24 * time.Hour)
	_, err = env.trips.GetPlanningByDay(ctx, driverID, &empty, &emptyEnd)
	assertKind(t, err, utils.KindNotFound)
}

func TestTripGetByDriverFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const driverID = 2

	first := env.acceptedRequest(t, 1)
	second := env.acceptedRequest(t, 1)
	started, err := env.trips.Create(ctx, driverID, newTrip(first.ID, time.Now()))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := env.trips.Create(ctx, driverID, newTrip(second.ID, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := env.trips.ChangeStatus(ctx, started.ID, "en_cours", driverID); err != nil {
		t.Fatalf("start trip: %v", err)
	}

	all, err := env.trips.GetByDriver(ctx, driverID, TripFilters{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 trips, got %d (%v)", len(all), err)
	}
	inProgress, err := env.trips.GetByDriver(ctx, driverID, TripFilters{Status: "en_cours"})
	if err != nil || len(inProgress) != 1 || inProgress[0].ID != started.ID {
		t.Fatalf("expected only trip %d, got %v (%v)", started.ID, inProgress, err)
	}

	_, err = env.trips.GetByDriver(ctx, driverID, TripFilters{Status: "bogus"})
	assertKind(t, err, utils.KindValidation)
	_, err = env.trips.GetByDriver(ctx, driverID+1, TripFilters{})
	assertKind(t, err, utils.KindNotFound)
}

func TestIncidentReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.acceptedRequest(t, 1)
	trip, err := env.trips.Create(ctx, 3, newTrip(request.ID, time.Now()))
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	incident, err := env.incidents.Report(ctx, &validators.ReportIncidentRequest{
		UserID:      3,
		Type:        "panne",
		Description: "Pneu crevé",
		TripID:      &trip.ID,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if incident.Status != models.IncidentStatusOpen || incident.ReportedAt.IsZero() {
		t.Fatalf("unexpected incident %+v", incident)
	}

	_, err = env.incidents.Report(ctx, &validators.ReportIncidentRequest{UserID: 3, Type: "incendie"})
	assertKind(t, err, utils.KindValidation)

	missing := int64(999)
	_, err = env.incidents.Report(ctx, &validators.ReportIncidentRequest{UserID: 3, Type: "autre", TripID: &missing})
	assertKind(t, err, utils.KindNotFound)

	if _, err := env.incidents.Report(ctx, &validators.ReportIncidentRequest{UserID: 3, Type: "autre"}); err != nil {
		t.Fatalf("Report without trip: %v", err)
	}

	byTrip, err := env.incidents.GetByTripID(ctx, trip.ID)
	if err != nil || len(byTrip) != 1 {
		t.Fatalf("expected 1 incident for trip, got %d (%v)", len(byTrip), err)
	}
	all, err := env.incidents.GetAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 incidents, got %d (%v)", len(all), err)
	}
}

func TestIncidentLookupsAndResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.incidents.GetAll(ctx)
	assertKind(t, err, utils.KindNotFound)
	_, err = env.incidents.FindByID(ctx, 0)
	assertKind(t, err, utils.KindValidation)
	_, err = env.incidents.FindByID(ctx, 42)
	assertKind(t, err, utils.KindNotFound)
	_, err = env.incidents.GetByTripID(ctx, 42)
	assertKind(t, err, utils.KindNotFound)

	incident, err := env.incidents.Report(ctx, &validators.ReportIncidentRequest{UserID: 1, Type: "agression"})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	resolved, err := env.incidents.Resolve(ctx, incident.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.IsResolved() || resolved.ResolvedAt == nil {
		t.Fatalf("expected resolved incident, got %+v", resolved)
	}

	again, err := env.incidents.Resolve(ctx, incident.ID)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !again.ResolvedAt.Equal(*resolved.ResolvedAt) {
		t.Fatalf("expected resolve to be idempotent, %v != %v", again.ResolvedAt, resolved.ResolvedAt)
	}

	resolvedEvents := 0
	for _, eventType := range env.publisher.types() {
		if eventType == events.IncidentResolved {
			resolvedEvents++
		}
	}
	if resolvedEvents != 1 {
		t.Fatalf("expected one %s event, got %d", events.IncidentResolved, resolvedEvents)
	}
}

func ids(requests []*models.RideRequest) []int64 {
	result := make([]int64, len(requests))
	for i, request := range requests {
		result[i] = request.ID
	}
	return result
}
