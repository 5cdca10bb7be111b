package sqldb

import (
	"context"
	"fmt"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"

	"gorm.io/gorm"
)

type incidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) interfaces.IncidentRepository {
	return &incidentRepository{db: db}
}

func (r *incidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	incident.ReportedAt = incident.ReportedAt.UTC()
	if err := r.db.WithContext(ctx).Create(incident).Error; err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	var incident models.Incident
	if err := r.db.WithContext(ctx).First(&incident, "id_incident = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "get incident")
	}
	normalizeIncident(&incident)
	return &incident, nil
}

func (r *incidentRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.Incident, error) {
	return r.list(r.db.WithContext(ctx).Where("id_trajet = ?", tripID))
}

func (r *incidentRepository) ListAll(ctx context.Context) ([]*models.Incident, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *incidentRepository) list(query *gorm.DB) ([]*models.Incident, error) {
	var incidents []*models.Incident
	err := query.Order("date_incident DESC").Order("id_incident DESC").Find(&incidents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	for _, incident := range incidents {
		normalizeIncident(incident)
	}
	return incidents, nil
}

func (r *incidentRepository) MarkResolved(ctx context.Context, id int64, resolvedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Incident{}).
		Where("id_incident = ?", id).
		Updates(map[string]interface{}{
			"statut":          models.IncidentStatusResolved,
			"date_traitement": resolvedAt.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to resolve incident: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func normalizeIncident(incident *models.Incident) {
	incident.ReportedAt = incident.ReportedAt.UTC()
	incident.ResolvedAt = utc(incident.ResolvedAt)
}
