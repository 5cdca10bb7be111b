package memory

import (
	"context"
	"sort"
	"sync"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
)

// RideRequestRepository keeps ride requests in memory. Callers always get
// copies, so mutating a returned request never touches the stored one.
type RideRequestRepository struct {
	mu       sync.RWMutex
	requests map[int64]*models.RideRequest
	nextID   int64
}

func NewRideRequestRepository() *RideRequestRepository {
	return &RideRequestRepository{
		requests: make(map[int64]*models.RideRequest),
	}
}

func (r *RideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	request.ID = r.nextID
	stored := *request
	stored.Trip = nil
	r.requests[request.ID] = &stored
	return nil
}

func (r *RideRequestRepository) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, exists := r.requests[id]
	if !exists {
		return nil, interfaces.ErrNotFound
	}
	found := *request
	return &found, nil
}

func (r *RideRequestRepository) List(ctx context.Context, filter interfaces.RideRequestFilter) ([]*models.RideRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.RideRequest
	for _, request := range r.requests {
		if filter.ClientID != nil && request.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		if filter.From != nil && request.RequestedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && request.RequestedAt.After(*filter.To) {
			continue
		}
		found := *request
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.RequestedAt.Equal(b.RequestedAt) {
			if filter.Ascending {
				return a.RequestedAt.Before(b.RequestedAt)
			}
			return a.RequestedAt.After(b.RequestedAt)
		}
		if filter.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return result, nil
}

func (r *RideRequestRepository) UpdateLocations(ctx context.Context, id int64, pickup, dropoff string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, exists := r.requests[id]
	if !exists {
		return interfaces.ErrNotFound
	}
	if request.Status != models.RideRequestStatusPending {
		return interfaces.ErrStaleState
	}
	request.Pickup = pickup
	request.Dropoff = dropoff
	return nil
}

func (r *RideRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RideRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, exists := r.requests[id]
	if !exists {
		return interfaces.ErrNotFound
	}
	if request.Status != from {
		return interfaces.ErrStaleState
	}
	request.Status = to
	return nil
}

func (r *RideRequestRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[id]; !exists {
		return interfaces.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}
