package interfaces

import (
	"context"
	"time"

	"hotelops/internal/models"
)

type RideRequestFilter struct {
	ClientID *int64
	Status   *models.RideRequestStatus
	From     *time.Time
	To       *time.Time
	// Ascending orders by request date oldest first; the default is newest first.
	Ascending bool
}

type RideRequestRepository interface {
	Create(ctx context.Context, request *models.RideRequest) error
	GetByID(ctx context.Context, id int64) (*models.RideRequest, error)
	List(ctx context.Context, filter RideRequestFilter) ([]*models.RideRequest, error)

	// UpdateLocations rewrites pickup and dropoff while the request is still
	// pending; it returns ErrStaleState otherwise.
	UpdateLocations(ctx context.Context, id int64, pickup, dropoff string) error
	// UpdateStatus moves the request from one status to another and returns
	// ErrStaleState when the current status is not from.
	UpdateStatus(ctx context.Context, id int64, from, to models.RideRequestStatus) error
	Delete(ctx context.Context, id int64) error
}
