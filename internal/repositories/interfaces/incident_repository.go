package interfaces

import (
	"context"
	"time"

	"hotelops/internal/models"
)

// IncidentRepository lists incidents newest first.
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	ListByTrip(ctx context.Context, tripID int64) ([]*models.Incident, error)
	ListAll(ctx context.Context) ([]*models.Incident, error)
	MarkResolved(ctx context.Context, id int64, resolvedAt time.Time) error
}
