package interfaces

import (
	"context"
	"time"

	"hotelops/internal/models"
)

type TripFilter struct {
	DriverID int64
	Status   *models.TripStatus
	From     *time.Time
	To       *time.Time
}

// TripRepository lists trips by pickup time ascending, then by id.
type TripRepository interface {
	// Create returns ErrDuplicate when a trip already exists for the ride request.
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
	GetByRideRequestID(ctx context.Context, rideRequestID int64) (*models.Trip, error)
	ListByDriver(ctx context.Context, filter TripFilter) ([]*models.Trip, error)

	// UpdateSchedule only applies to pending trips; ErrStaleState otherwise.
	UpdateSchedule(ctx context.Context, id int64, pickupAt, dropoffAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, from, to models.TripStatus) error
}
