package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
)

// TripRepository keeps trips in memory with a ride-request index that plays
// the role of the unique constraint on id_demande_course.
type TripRepository struct {
	mu            sync.RWMutex
	trips         map[int64]*models.Trip
	byRideRequest map[int64]int64
	nextID        int64
}

func NewTripRepository() *TripRepository {
	return &TripRepository{
		trips:         make(map[int64]*models.Trip),
		byRideRequest: make(map[int64]int64),
	}
}

func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRideRequest[trip.RideRequestID]; exists {
		return interfaces.ErrDuplicate
	}
	r.nextID++
	trip.ID = r.nextID
	stored := *trip
	r.trips[trip.ID] = &stored
	r.byRideRequest[trip.RideRequestID] = trip.ID
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, exists := r.trips[id]
	if !exists {
		return nil, interfaces.ErrNotFound
	}
	found := *trip
	return &found, nil
}

func (r *TripRepository) GetByRideRequestID(ctx context.Context, rideRequestID int64) (*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byRideRequest[rideRequestID]
	if !exists {
		return nil, interfaces.ErrNotFound
	}
	found := *r.trips[id]
	return &found, nil
}

func (r *TripRepository) ListByDriver(ctx context.Context, filter interfaces.TripFilter) ([]*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Trip
	for _, trip := range r.trips {
		if trip.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != nil && trip.Status != *filter.Status {
			continue
		}
		if filter.From != nil && trip.PickupAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && trip.PickupAt.After(*filter.To) {
			continue
		}
		found := *trip
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PickupAt.Equal(result[j].PickupAt) {
			return result[i].PickupAt.Before(result[j].PickupAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *TripRepository) UpdateSchedule(ctx context.Context, id int64, pickupAt, dropoffAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, exists := r.trips[id]
	if !exists {
		return interfaces.ErrNotFound
	}
	if trip.Status != models.TripStatusPending {
		return interfaces.ErrStaleState
	}
	trip.PickupAt = pickupAt
	trip.DropoffAt = dropoffAt
	return nil
}

func (r *TripRepository) UpdateStatus(ctx context.Context, id int64, from, to models.TripStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, exists := r.trips[id]
	if !exists {
		return interfaces.ErrNotFound
	}
	if trip.Status != from {
		return interfaces.ErrStaleState
	}
	trip.Status = to
	return nil
}
