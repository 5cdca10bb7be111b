package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/observability"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/utils"
	"hotelops/internal/validators"
	"hotelops/pkg/cache"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

type TripFilters struct {
	Status  string
	DateMin *time.Time
	DateMax *time.Time
}

type TripService interface {
	GetByID(ctx context.Context, id, driverID int64) (*models.Trip, error)
	GetByDriver(ctx context.Context, driverID int64, filters TripFilters) ([]*models.Trip, error)
	GetPlanningByDay(ctx context.Context, driverID int64, dateMin, dateMax *time.Time) ([]*models.DayPlanning, error)
	Create(ctx context.Context, driverID int64, req *validators.CreateTripRequest) (*models.Trip, error)
	UpdateSchedule(ctx context.Context, id, clientID int64, req *validators.TripScheduleRequest) (*models.Trip, error)
	ChangeStatus(ctx context.Context, id int64, newStatus string, driverID int64) (*models.Trip, error)
}

type tripService struct {
	trips        interfaces.TripRepository
	rideRequests interfaces.RideRequestRepository
	locker       cache.Locker
	lockTTL      time.Duration
	publisher    events.Publisher
	log          *logger.Logger
}

// NewTripService builds the trip service. locker may be nil, in which case
// trip creation relies on the store's unique ride request constraint alone.
func NewTripService(
	trips interfaces.TripRepository,
	rideRequests interfaces.RideRequestRepository,
	locker cache.Locker,
	lockTTL time.Duration,
	publisher events.Publisher,
	log *logger.Logger,
) TripService {
	return &tripService{
		trips:        trips,
		rideRequests: rideRequests,
		locker:       locker,
		lockTTL:      lockTTL,
		publisher:    publisher,
		log:          log,
	}
}

const (
	tripNotFound      = "trip not found"
	tripNotYours      = "trip is assigned to another driver"
	tripAlreadyExists = "a trip already exists for this ride request"
)

func (s *tripService) GetByID(ctx context.Context, id, driverID int64) (*models.Trip, error) {
	if !validID(id) {
		return nil, invalidID("id_trajet")
	}

	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, utils.NewPermissionError(tripNotYours)
	}
	return trip, nil
}

func (s *tripService) GetByDriver(ctx context.Context, driverID int64, filters TripFilters) ([]*models.Trip, error) {
	if !validID(driverID) {
		return nil, invalidID("id_personnel")
	}
	if err := checkRange(filters.DateMin, filters.DateMax); err != nil {
		return nil, err
	}

	filter := interfaces.TripFilter{
		DriverID: driverID,
		From:     filters.DateMin,
		To:       filters.DateMax,
	}
	if filters.Status != "" {
		status := models.TripStatus(filters.Status)
		if !status.IsValid() {
			return nil, invalidTripStatus()
		}
		filter.Status = &status
	}

	trips, err := s.trips.ListByDriver(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, utils.NewNotFoundError("no trips found for this driver")
	}
	return trips, nil
}

func (s *tripService) GetPlanningByDay(ctx context.Context, driverID int64, dateMin, dateMax *time.Time) ([]*models.DayPlanning, error) {
	if !validID(driverID) {
		return nil, invalidID("id_personnel")
	}
	if dateMin == nil || dateMax == nil {
		return nil, utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{
			"dateMin": "dateMin and dateMax are required",
		})
	}
	if err := checkRange(dateMin, dateMax); err != nil {
		return nil, err
	}

	trips, err := s.trips.ListByDriver(ctx, interfaces.TripFilter{
		DriverID: driverID,
		From:     dateMin,
		To:       dateMax,
	})
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, utils.NewNotFoundError("no trips planned in this period")
	}
	return groupByDay(trips), nil
}

// groupByDay expects trips sorted by pickup time and keeps that order both
// across and within days.
func groupByDay(trips []*models.Trip) []*models.DayPlanning {
	var planning []*models.DayPlanning
	for _, trip := range trips {
		day := utils.DayKey(trip.PickupAt)
		if n := len(planning); n > 0 && planning[n-1].Date == day {
			planning[n-1].Trips = append(planning[n-1].Trips, trip)
			continue
		}
		planning = append(planning, &models.DayPlanning{Date: day, Trips: []*models.Trip{trip}})
	}
	return planning
}

func (s *tripService) Create(ctx context.Context, driverID int64, req *validators.CreateTripRequest) (*models.Trip, error) {
	if !validID(driverID) {
		return nil, invalidID("id_personnel")
	}
	if errs := validators.ValidateCreateTrip(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, utils.LockTripCreationPrefix+strconv.FormatInt(req.RideRequestID, 10), s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock ride request: %w", err)
		}
		if !acquired {
			observability.TripCreationConflicts.Inc()
			return nil, utils.NewConflictError("a trip is already being created for this ride request")
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.WithContext(ctx).WithError(err).Warn("Failed to release trip creation lock")
			}
		}()
	}

	request, err := s.rideRequests.GetByID(ctx, req.RideRequestID)
	if err != nil {
		return nil, notFound(err, rideRequestNotFound)
	}

	if _, err := s.trips.GetByRideRequestID(ctx, request.ID); err == nil {
		observability.TripCreationConflicts.Inc()
		return nil, utils.NewConflictError(tripAlreadyExists)
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if request.Status != models.RideRequestStatusAccepted {
		return nil, utils.NewConflictError(fmt.Sprintf("ride request must be %s, not %s", models.RideRequestStatusAccepted, request.Status))
	}

	trip := &models.Trip{
		DriverID:      driverID,
		RideRequestID: request.ID,
		PickupAt:      req.PickupAt.UTC(),
		DropoffAt:     req.DropoffAt.UTC(),
		Status:        models.TripStatusPending,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			observability.TripCreationConflicts.Inc()
			return nil, utils.WrapConflict(tripAlreadyExists, err)
		}
		return nil, err
	}

	observability.TripTransitions.WithLabelValues(string(trip.Status)).Inc()
	s.log.WithContext(ctx).LogTripEvent(trip.ID, events.TripCreated, map[string]interface{}{
		"id_demande_course": trip.RideRequestID,
		"id_personnel":      trip.DriverID,
	})
	publish(ctx, s.publisher, s.log, events.New(events.TripCreated, tripKey(trip.ID), trip,
		events.ClientRoom(request.ClientID), events.PersonnelRoom(driverID)))

	return trip, nil
}

func (s *tripService) UpdateSchedule(ctx context.Context, id, clientID int64, req *validators.TripScheduleRequest) (*models.Trip, error) {
	if !validID(id) {
		return nil, invalidID("id_trajet")
	}

	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	request, err := s.rideRequests.GetByID(ctx, trip.RideRequestID)
	if err != nil {
		return nil, notFound(err, rideRequestNotFound)
	}
	if request.ClientID != clientID {
		return nil, utils.NewPermissionError("trip belongs to another client")
	}
	if trip.Status != models.TripStatusPending {
		return nil, utils.NewConflictError(fmt.Sprintf("trip is already %s", trip.Status))
	}
	if errs := validators.ValidateTripSchedule(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	pickupAt, dropoffAt := req.PickupAt.UTC(), req.DropoffAt.UTC()
	if err := s.trips.UpdateSchedule(ctx, id, pickupAt, dropoffAt); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return nil, utils.WrapConflict("trip is no longer pending", err)
		}
		return nil, notFound(err, tripNotFound)
	}
	trip.PickupAt = pickupAt
	trip.DropoffAt = dropoffAt

	s.log.WithContext(ctx).LogTripEvent(id, events.TripRescheduled, nil)
	publish(ctx, s.publisher, s.log, events.New(events.TripRescheduled, tripKey(id), trip,
		events.ClientRoom(clientID), events.PersonnelRoom(trip.DriverID)))

	return trip, nil
}

func (s *tripService) ChangeStatus(ctx context.Context, id int64, newStatus string, driverID int64) (*models.Trip, error) {
	if !validID(id) {
		return nil, invalidID("id_trajet")
	}

	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, utils.NewPermissionError(tripNotYours)
	}

	next := models.TripStatus(newStatus)
	if !next.IsValid() {
		return nil, invalidTripStatus()
	}
	if !trip.Status.CanTransitionTo(next) {
		return nil, utils.NewConflictError(fmt.Sprintf("trip cannot move from %s to %s", trip.Status, next))
	}

	if err := s.trips.UpdateStatus(ctx, id, trip.Status, next); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return nil, utils.WrapConflict("trip status changed concurrently", err)
		}
		return nil, notFound(err, tripNotFound)
	}
	previous := trip.Status
	trip.Status = next

	observability.TripTransitions.WithLabelValues(string(next)).Inc()
	s.log.WithContext(ctx).LogTripEvent(id, events.TripStatusChanged, map[string]interface{}{
		"from": previous,
		"to":   next,
	})

	rooms := []string{events.PersonnelRoom(trip.DriverID)}
	if request, err := s.rideRequests.GetByID(ctx, trip.RideRequestID); err == nil {
		rooms = append(rooms, events.ClientRoom(request.ClientID))
	}
	publish(ctx, s.publisher, s.log, events.New(events.TripStatusChanged, tripKey(id), trip, rooms...))

	return trip, nil
}

func (s *tripService) load(ctx context.Context, id int64) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, tripNotFound)
	}
	return trip, nil
}

func invalidTripStatus() error {
	return utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{
		"statut": "statut must be one of: en_attente en_cours termine",
	})
}

func tripKey(id int64) string {
	return fmt.Sprintf("trajet:%d", id)
}
