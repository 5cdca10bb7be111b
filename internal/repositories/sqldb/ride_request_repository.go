package sqldb

import (
	"context"
	"fmt"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"

	"gorm.io/gorm"
)

type rideRequestRepository struct {
	db *gorm.DB
}

func NewRideRequestRepository(db *gorm.DB) interfaces.RideRequestRepository {
	return &rideRequestRepository{db: db}
}

func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	request.RequestedAt = request.RequestedAt.UTC()
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}
	return nil
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	var request models.RideRequest
	err := r.db.WithContext(ctx).First(&request, "id_demande_course = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "get ride request")
	}
	request.RequestedAt = request.RequestedAt.UTC()
	return &request, nil
}

func (r *rideRequestRepository) List(ctx context.Context, filter interfaces.RideRequestFilter) ([]*models.RideRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.RideRequest{})
	if filter.ClientID != nil {
		query = query.Where("id_client = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("statut = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date_demande >= ?", *utc(filter.From))
	}
	if filter.To != nil {
		query = query.Where("date_demande <= ?", *utc(filter.To))
	}
	if filter.Ascending {
		query = query.Order("date_demande ASC").Order("id_demande_course ASC")
	} else {
		query = query.Order("date_demande DESC").Order("id_demande_course DESC")
	}

	var requests []*models.RideRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list ride requests: %w", err)
	}
	for _, request := range requests {
		request.RequestedAt = request.RequestedAt.UTC()
	}
	return requests, nil
}

func (r *rideRequestRepository) UpdateLocations(ctx context.Context, id int64, pickup, dropoff string) error {
	result := r.db.WithContext(ctx).Model(&models.RideRequest{}).
		Where("id_demande_course = ? AND statut = ?", id, models.RideRequestStatusPending).
		Updates(map[string]interface{}{"lieu_depart": pickup, "lieu_arrivee": dropoff})
	if result.Error != nil {
		return fmt.Errorf("failed to update ride request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

func (r *rideRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RideRequestStatus) error {
	result := r.db.WithContext(ctx).Model(&models.RideRequest{}).
		Where("id_demande_course = ? AND statut = ?", id, from).
		Update("statut", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update ride request status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

func (r *rideRequestRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.RideRequest{}, "id_demande_course = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete ride request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// missOrStale tells an absent row from one whose status moved on.
func (r *rideRequestRepository) missOrStale(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RideRequest{}).
		Where("id_demande_course = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check ride request: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrStaleState
}
