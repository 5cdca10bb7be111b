package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
)

type IncidentRepository struct {
	mu        sync.RWMutex
	incidents map[int64]*models.Incident
	nextID    int64
}

func NewIncidentRepository() *IncidentRepository {
	return &IncidentRepository{
		incidents: make(map[int64]*models.Incident),
	}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	incident.ID = r.nextID
	r.incidents[incident.ID] = copyIncident(incident)
	return nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, exists := r.incidents[id]
	if !exists {
		return nil, interfaces.ErrNotFound
	}
	return copyIncident(incident), nil
}

func (r *IncidentRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.Incident, error) {
	return r.list(func(incident *models.Incident) bool {
		return incident.TripID != nil && *incident.TripID == tripID
	}), nil
}

func (r *IncidentRepository) ListAll(ctx context.Context) ([]*models.Incident, error) {
	return r.list(func(*models.Incident) bool { return true }), nil
}

func (r *IncidentRepository) MarkResolved(ctx context.Context, id int64, resolvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incident, exists := r.incidents[id]
	if !exists {
		return interfaces.ErrNotFound
	}
	incident.Status = models.IncidentStatusResolved
	incident.ResolvedAt = &resolvedAt
	return nil
}

func (r *IncidentRepository) list(keep func(*models.Incident) bool) []*models.Incident {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Incident
	for _, incident := range r.incidents {
		if keep(incident) {
			result = append(result, copyIncident(incident))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ReportedAt.Equal(result[j].ReportedAt) {
			return result[i].ReportedAt.After(result[j].ReportedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func copyIncident(incident *models.Incident) *models.Incident {
	c := *incident
	if incident.TripID != nil {
		tripID := *incident.TripID
		c.TripID = &tripID
	}
	if incident.ResolvedAt != nil {
		resolvedAt := *incident.ResolvedAt
		c.ResolvedAt = &resolvedAt
	}
	return &c
}
