package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/observability"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/utils"
	"hotelops/internal/validators"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

type RideRequestFilters struct {
	Status  string
	DateMin *time.Time
	DateMax *time.Time
}

type RideRequestService interface {
	GetByID(ctx context.Context, id int64) (*models.RideRequest, error)
	GetByClient(ctx context.Context, clientID int64, filters RideRequestFilters) ([]*models.RideRequest, error)
	GetPending(ctx context.Context, filters RideRequestFilters) ([]*models.RideRequest, error)
	Create(ctx context.Context, req *validators.CreateRideRequestRequest) (*models.RideRequest, error)
	Update(ctx context.Context, id int64, req *validators.UpdateRideRequestRequest) (*models.RideRequest, error)
	ChangeStatus(ctx context.Context, id int64, newStatus string) (*models.RideRequest, error)
	Delete(ctx context.Context, id int64) error
}

type rideRequestService struct {
	rideRequests interfaces.RideRequestRepository
	trips        interfaces.TripRepository
	publisher    events.Publisher
	log          *logger.Logger
	clock        func() time.Time
}

func NewRideRequestService(
	rideRequests interfaces.RideRequestRepository,
	trips interfaces.TripRepository,
	publisher events.Publisher,
	log *logger.Logger,
) RideRequestService {
	return &rideRequestService{
		rideRequests: rideRequests,
		trips:        trips,
		publisher:    publisher,
		log:          log,
		clock:        time.Now,
	}
}

const rideRequestNotFound = "ride request not found"

func (s *rideRequestService) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	if !validID(id) {
		return nil, invalidID("id_demande_course")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByRideRequestID(ctx, id)
	switch {
	case err == nil:
		request.Trip = trip
	case !errors.Is(err, interfaces.ErrNotFound):
		return nil, err
	}
	return request, nil
}

func (s *rideRequestService) GetByClient(ctx context.Context, clientID int64, filters RideRequestFilters) ([]*models.RideRequest, error) {
	if !validID(clientID) {
		return nil, invalidID("id_client")
	}
	if err := checkRange(filters.DateMin, filters.DateMax); err != nil {
		return nil, err
	}

	filter := interfaces.RideRequestFilter{
		ClientID: &clientID,
		From:     filters.DateMin,
		To:       filters.DateMax,
	}
	if filters.Status != "" {
		status := models.RideRequestStatus(filters.Status)
		if !status.IsValid() {
			return nil, utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{
				"statut": "statut must be one of: en_attente acceptee refusee annulee",
			})
		}
		filter.Status = &status
	}

	requests, err := s.rideRequests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, utils.NewNotFoundError("no ride requests found for this client")
	}
	return requests, nil
}

func (s *rideRequestService) GetPending(ctx context.Context, filters RideRequestFilters) ([]*models.RideRequest, error) {
	if err := checkRange(filters.DateMin, filters.DateMax); err != nil {
		return nil, err
	}

	pending := models.RideRequestStatusPending
	requests, err := s.rideRequests.List(ctx, interfaces.RideRequestFilter{
		Status:    &pending,
		From:      filters.DateMin,
		To:        filters.DateMax,
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, utils.NewNotFoundError("no pending ride requests")
	}
	return requests, nil
}

func (s *rideRequestService) Create(ctx context.Context, req *validators.CreateRideRequestRequest) (*models.RideRequest, error) {
	if errs := validators.ValidateCreateRideRequest(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	request := &models.RideRequest{
		ClientID:    req.ClientID,
		Pickup:      strings.TrimSpace(req.Pickup),
		Dropoff:     strings.TrimSpace(req.Dropoff),
		RequestedAt: s.clock().UTC(),
		Status:      models.RideRequestStatusPending,
	}
	if err := s.rideRequests.Create(ctx, request); err != nil {
		return nil, err
	}

	observability.RideRequestTransitions.WithLabelValues(string(request.Status)).Inc()
	s.log.WithContext(ctx).LogRideRequestEvent(request.ID, events.RideRequestCreated, map[string]interface{}{
		"id_client": request.ClientID,
	})
	publish(ctx, s.publisher, s.log, events.New(events.RideRequestCreated, rideRequestKey(request.ID), request,
		events.ClientRoom(request.ClientID), events.RoomDrivers, events.RoomAdmins))

	return request, nil
}

func (s *rideRequestService) Update(ctx context.Context, id int64, req *validators.UpdateRideRequestRequest) (*models.RideRequest, error) {
	if !validID(id) {
		return nil, invalidID("id_demande_course")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.IsPending() {
		return nil, utils.NewValidationError("only pending ride requests can be modified")
	}
	if errs := validators.ValidateUpdateRideRequest(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if req.Pickup != nil {
		request.Pickup = strings.TrimSpace(*req.Pickup)
	}
	if req.Dropoff != nil {
		request.Dropoff = strings.TrimSpace(*req.Dropoff)
	}
	if errs := validators.ValidateLocations(request.Pickup, request.Dropoff); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if err := s.rideRequests.UpdateLocations(ctx, id, request.Pickup, request.Dropoff); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return nil, utils.NewValidationError("only pending ride requests can be modified")
		}
		return nil, notFound(err, rideRequestNotFound)
	}

	s.log.WithContext(ctx).LogRideRequestEvent(id, events.RideRequestUpdated, nil)
	publish(ctx, s.publisher, s.log, events.New(events.RideRequestUpdated, rideRequestKey(id), request,
		events.ClientRoom(request.ClientID), events.RoomDrivers))

	return request, nil
}

func (s *rideRequestService) ChangeStatus(ctx context.Context, id int64, newStatus string) (*models.RideRequest, error) {
	if !validID(id) {
		return nil, invalidID("id_demande_course")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := models.RideRequestStatus(newStatus)
	if !next.IsTerminal() {
		return nil, utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{
			"statut": "statut must be one of: acceptee refusee annulee",
		})
	}
	if !request.IsPending() {
		return nil, utils.NewValidationError(fmt.Sprintf("ride request is already %s", request.Status))
	}

	if err := s.rideRequests.UpdateStatus(ctx, id, models.RideRequestStatusPending, next); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return nil, utils.NewValidationError("ride request is no longer pending")
		}
		return nil, notFound(err, rideRequestNotFound)
	}
	previous := request.Status
	request.Status = next

	observability.RideRequestTransitions.WithLabelValues(string(next)).Inc()
	s.log.WithContext(ctx).LogRideRequestEvent(id, events.RideRequestStatusChanged, map[string]interface{}{
		"from": previous,
		"to":   next,
	})
	publish(ctx, s.publisher, s.log, events.New(events.RideRequestStatusChanged, rideRequestKey(id), request,
		events.ClientRoom(request.ClientID), events.RoomDrivers, events.RoomAdmins))

	return request, nil
}

func (s *rideRequestService) Delete(ctx context.Context, id int64) error {
	if !validID(id) {
		return invalidID("id_demande_course")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rideRequests.Delete(ctx, id); err != nil {
		return notFound(err, rideRequestNotFound)
	}

	s.log.WithContext(ctx).LogRideRequestEvent(id, events.RideRequestDeleted, nil)
	publish(ctx, s.publisher, s.log, events.New(events.RideRequestDeleted, rideRequestKey(id),
		map[string]int64{"id_demande_course": id},
		events.ClientRoom(request.ClientID), events.RoomDrivers))

	return nil
}

func (s *rideRequestService) load(ctx context.Context, id int64) (*models.RideRequest, error) {
	request, err := s.rideRequests.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, rideRequestNotFound)
	}
	return request, nil
}

func rideRequestKey(id int64) string {
	return fmt.Sprintf("demande:%d", id)
}
