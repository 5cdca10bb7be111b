package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
	"hotelops/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type incidentRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewIncidentRepository(db *mongo.Database) interfaces.IncidentRepository {
	return &incidentRepository{
		collection: db.Collection(database.CollectionIncidents),
		ids:        newSequence(db, database.CollectionIncidents),
	}
}

func (r *incidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	id, err := r.ids.next(ctx)
	if err != nil {
		return err
	}
	incident.ID = id
	incident.ReportedAt = incident.ReportedAt.UTC()

	if _, err := r.collection.InsertOne(ctx, incident); err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	var incident models.Incident
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&incident); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	normalizeIncident(&incident)
	return &incident, nil
}

func (r *incidentRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.Incident, error) {
	return r.find(ctx, bson.M{"id_trajet": tripID})
}

func (r *incidentRepository) ListAll(ctx context.Context) ([]*models.Incident, error) {
	return r.find(ctx, bson.M{})
}

func (r *incidentRepository) find(ctx context.Context, filter bson.M) ([]*models.Incident, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date_incident", Value: -1},
		{Key: "_id", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer cursor.Close(ctx)

	var incidents []*models.Incident
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, fmt.Errorf("failed to decode incidents: %w", err)
	}
	for _, incident := range incidents {
		normalizeIncident(incident)
	}
	return incidents, nil
}

func (r *incidentRepository) MarkResolved(ctx context.Context, id int64, resolvedAt time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"statut":          models.IncidentStatusResolved,
			"date_traitement": resolvedAt.UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve incident: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func normalizeIncident(incident *models.Incident) {
	incident.ReportedAt = incident.ReportedAt.UTC()
	if incident.ResolvedAt != nil {
		resolvedAt := incident.ResolvedAt.UTC()
		incident.ResolvedAt = &resolvedAt
	}
}
