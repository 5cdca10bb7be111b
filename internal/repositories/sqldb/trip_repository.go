package sqldb

import (
	"context"
	"fmt"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"

	"gorm.io/gorm"
)

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) interfaces.TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	trip.PickupAt = trip.PickupAt.UTC()
	trip.DropoffAt = trip.DropoffAt.UTC()
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	return r.first(ctx, "id_trajet = ?", id)
}

func (r *tripRepository) GetByRideRequestID(ctx context.Context, rideRequestID int64) (*models.Trip, error) {
	return r.first(ctx, "id_demande_course = ?", rideRequestID)
}

func (r *tripRepository) first(ctx context.Context, where string, arg int64) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.WithContext(ctx).First(&trip, where, arg).Error; err != nil {
		return nil, translateNotFound(err, "get trip")
	}
	normalizeTrip(&trip)
	return &trip, nil
}

func (r *tripRepository) ListByDriver(ctx context.Context, filter interfaces.TripFilter) ([]*models.Trip, error) {
	query := r.db.WithContext(ctx).Model(&models.Trip{}).Where("id_personnel = ?", filter.DriverID)
	if filter.Status != nil {
		query = query.Where("statut = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date_prise_en_charge >= ?", *utc(filter.From))
	}
	if filter.To != nil {
		query = query.Where("date_prise_en_charge <= ?", *utc(filter.To))
	}

	var trips []*models.Trip
	if err := query.Order("date_prise_en_charge ASC").Order("id_trajet ASC").Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	for _, trip := range trips {
		normalizeTrip(trip)
	}
	return trips, nil
}

func (r *tripRepository) UpdateSchedule(ctx context.Context, id int64, pickupAt, dropoffAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id_trajet = ? AND statut = ?", id, models.TripStatusPending).
		Updates(map[string]interface{}{
			"date_prise_en_charge": pickupAt.UTC(),
			"date_depose":          dropoffAt.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update trip schedule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

func (r *tripRepository) UpdateStatus(ctx context.Context, id int64, from, to models.TripStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id_trajet = ? AND statut = ?", id, from).
		Update("statut", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update trip status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

func (r *tripRepository) missOrStale(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Trip{}).Where("id_trajet = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check trip: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrStaleState
}

func normalizeTrip(trip *models.Trip) {
	trip.PickupAt = trip.PickupAt.UTC()
	trip.DropoffAt = trip.DropoffAt.UTC()
}
