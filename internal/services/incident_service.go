package services

import (
	"context"
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

type IncidentService interface {
	FindByID(ctx context.Context, id int64) (*models.Incident, error)
	Report(ctx context.Context, req *validators.ReportIncidentRequest) (*models.Incident, error)
	GetByTripID(ctx context.Context, tripID int64) ([]*models.Incident, error)
	GetAll(ctx context.Context) ([]*models.Incident, error)
	Resolve(ctx context.Context, id int64) (*models.Incident, error)
}

type incidentService struct {
	incidents interfaces.IncidentRepository
	trips     interfaces.TripRepository
	publisher events.Publisher
	log       *logger.Logger
	clock     func() time.Time
}

func NewIncidentService(
	incidents interfaces.IncidentRepository,
	trips interfaces.TripRepository,
	publisher events.Publisher,
	log *logger.Logger,
) IncidentService {
	return &incidentService{
		incidents: incidents,
		trips:     trips,
		publisher: publisher,
		log:       log,
		clock:     time.Now,
	}
}

const incidentNotFound = "incident not found"

func (s *incidentService) FindByID(ctx context.Context, id int64) (*models.Incident, error) {
	if !validID(id) {
		return nil, invalidID("id_incident")
	}

	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, incidentNotFound)
	}
	return incident, nil
}

func (s *incidentService) Report(ctx context.Context, req *validators.ReportIncidentRequest) (*models.Incident, error) {
	if errs := validators.ValidateReportIncident(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if req.TripID != nil {
		if _, err := s.trips.GetByID(ctx, *req.TripID); err != nil {
			return nil, notFound(err, tripNotFound)
		}
	}

	incident := &models.Incident{
		UserID:      req.UserID,
		TripID:      req.TripID,
		Type:        models.IncidentType(req.Type),
		Description: strings.TrimSpace(req.Description),
		ReportedAt:  s.clock().UTC(),
		Status:      models.IncidentStatusOpen,
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, err
	}

	observability.IncidentsReported.WithLabelValues(string(incident.Type)).Inc()
	s.log.WithContext(ctx).LogIncidentEvent(incident.ID, events.IncidentReported, map[string]interface{}{
		"type":           incident.Type,
		"id_utilisateur": incident.UserID,
	})
	publish(ctx, s.publisher, s.log, events.New(events.IncidentReported, incidentKey(incident.ID), incident, events.RoomAdmins))

	return incident, nil
}

func (s *incidentService) GetByTripID(ctx context.Context, tripID int64) ([]*models.Incident, error) {
	if !validID(tripID) {
		return nil, invalidID("id_trajet")
	}

	incidents, err := s.incidents.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(incidents) == 0 {
		return nil, utils.NewNotFoundError("no incidents reported for this trip")
	}
	return incidents, nil
}

func (s *incidentService) GetAll(ctx context.Context) ([]*models.Incident, error) {
	incidents, err := s.incidents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(incidents) == 0 {
		return nil, utils.NewNotFoundError("no incidents reported")
	}
	return incidents, nil
}

// Resolve marks the incident as handled. Resolving an already handled
// incident returns it unchanged.
func (s *incidentService) Resolve(ctx context.Context, id int64) (*models.Incident, error) {
	incident, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		return incident, nil
	}

	resolvedAt := s.clock().UTC()
	if err := s.incidents.MarkResolved(ctx, id, resolvedAt); err != nil {
		return nil, notFound(err, incidentNotFound)
	}
	incident.Status = models.IncidentStatusResolved
	incident.ResolvedAt = &resolvedAt

	s.log.WithContext(ctx).LogIncidentEvent(id, events.IncidentResolved, nil)
	publish(ctx, s.publisher, s.log, events.New(events.IncidentResolved, incidentKey(id), incident, events.RoomAdmins))

	return incident, nil
}

func incidentKey(id int64) string {
	return fmt.Sprintf("incident:%d", id)
}
