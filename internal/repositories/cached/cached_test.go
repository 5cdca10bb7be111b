package cached

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/repositories/memory"
	"hotelops/internal/services"
	"hotelops/internal/validators"
	"hotelops/pkg/cache"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

// mapCache stores JSON like RedisCache does.
type mapCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	gets  int
	hits  int
	fails bool
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails {
		return errors.New("cache down")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fails {
		return errors.New("cache down")
	}
	b, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(b, dest)
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestRideRequestGetByIDReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRideRequestRepository()
	c := newMapCache()
	repo := NewRideRequestRepository(store, c, time.Minute, logger.NewNopLogger())

	request := &models.RideRequest{ClientID: 1, Pickup: "Lobby", Dropoff: "Airport", RequestedAt: time.Now().UTC(), Status: models.RideRequestStatusPending}
	if err := repo.Create(ctx, request); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetByID(ctx, request.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}
	got, err := repo.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if c.hits != 1 || got.Pickup != "Lobby" {
		t.Fatalf("expected a cache hit on second read, hits=%d got=%+v", c.hits, got)
	}
}

func TestRideRequestWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRideRequestRepository()
	c := newMapCache()
	repo := NewRideRequestRepository(store, c, time.Minute, logger.NewNopLogger())

	request := &models.RideRequest{ClientID: 1, Pickup: "Lobby", Dropoff: "Airport", RequestedAt: time.Now().UTC(), Status: models.RideRequestStatusPending}
	_ = repo.Create(ctx, request)
	_, _ = repo.GetByID(ctx, request.ID)

	if err := repo.UpdateStatus(ctx, request.ID, models.RideRequestStatusPending, models.RideRequestStatusAccepted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := repo.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.RideRequestStatusAccepted {
		t.Fatalf("expected fresh status after invalidation, got %s", got.Status)
	}

	if err := repo.Delete(ctx, request.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, request.ID); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTripRepositoryFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTripRepository()
	c := newMapCache()
	c.fails = true
	repo := NewTripRepository(store, c, time.Minute, logger.NewNopLogger())

	trip := &models.Trip{DriverID: 2, RideRequestID: 3, PickupAt: time.Now().UTC(), DropoffAt: time.Now().UTC().Add(time.Hour), Status: models.TripStatusPending}
	if err := repo.Create(ctx, trip); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByID(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RideRequestID != 3 {
		t.Fatalf("unexpected trip %+v", got)
	}
}

func TestTripStatusChangeInvalidates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTripRepository()
	c := newMapCache()
	repo := NewTripRepository(store, c, time.Minute, logger.NewNopLogger())

	trip := &models.Trip{DriverID: 2, RideRequestID: 3, PickupAt: time.Now().UTC(), DropoffAt: time.Now().UTC().Add(time.Hour), Status: models.TripStatusPending}
	_ = repo.Create(ctx, trip)
	_, _ = repo.GetByID(ctx, trip.ID)

	if err := repo.UpdateStatus(ctx, trip.ID, models.TripStatusPending, models.TripStatusInProgress); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetByID(ctx, trip.ID)
	if got.Status != models.TripStatusInProgress {
		t.Fatalf("expected in-progress after invalidation, got %s", got.Status)
	}
}

// pausingStore holds the next GetByID after the row is read and before it is
// returned, so a write can land in between.
type pausingStore struct {
	*memory.RideRequestRepository
	mu     sync.Mutex
	read   chan struct{}
	resume chan struct{}
}

func (p *pausingStore) pauseNext() (read <-chan struct{}, resume chan<- struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.read = make(chan struct{})
	p.resume = make(chan struct{})
	return p.read, p.resume
}

func (p *pausingStore) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	found, err := p.RideRequestRepository.GetByID(ctx, id)

	p.mu.Lock()
	read, resume := p.read, p.resume
	p.read, p.resume = nil, nil
	p.mu.Unlock()

	if read != nil {
		close(read)
		<-resume
	}
	return found, err
}

func TestStaleFillDoesNotOutliveStatusChange(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNopLogger()
	store := &pausingStore{RideRequestRepository: memory.NewRideRequestRepository()}
	tripStore := memory.NewTripRepository()
	repo := NewRideRequestRepository(store, newMapCache(), time.Minute, log)

	requests := services.NewRideRequestService(repo, tripStore, events.NewNopPublisher(), log)
	trips := services.NewTripService(tripStore, repo, nil, 0, events.NewNopPublisher(), log)

	request, err := requests.Create(ctx, &validators.CreateRideRequestRequest{ClientID: 1, Pickup: "Lobby", Dropoff: "Airport"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	read, resume := store.pauseNext()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = repo.GetByID(ctx, request.ID)
	}()
	<-read

	if _, err := requests.ChangeStatus(ctx, request.ID, string(models.RideRequestStatusAccepted)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	close(resume)
	<-done

	got, err := repo.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.RideRequestStatusAccepted {
		t.Fatalf("cache kept the pre-accept row: %s", got.Status)
	}

	pickup := time.Now().UTC().Add(24 * time.Hour)
	dropoff := pickup.Add(time.Hour)
	trip, err := trips.Create(ctx, 9, &validators.CreateTripRequest{RideRequestID: request.ID, PickupAt: &pickup, DropoffAt: &dropoff})
	if err != nil {
		t.Fatalf("trip create after accept: %v", err)
	}
	if trip.RideRequestID != request.ID {
		t.Fatalf("unexpected trip %+v", trip)
	}
}
