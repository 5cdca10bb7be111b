package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelops/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names of the document store.
const (
	CollectionRideRequests = "demandes_course"
	CollectionTrips        = "trajets"
	CollectionIncidents    = "incidents"
	CollectionCounters     = "counters"
	collectionMigrations   = "migrations"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(collectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.db.Collection(collectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create demandes_course indexes",
			Up:          createRideRequestIndexes,
		},
		{
			Version:     2,
			Description: "Create trajets indexes with one trip per ride request",
			Up:          createTripIndexes,
		},
		{
			Version:     3,
			Description: "Create incidents indexes",
			Up:          createIncidentIndexes,
		},
	}
}

func createRideRequestIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id_client", Value: 1}, {Key: "date_demande", Value: -1}}},
		{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "date_demande", Value: 1}}},
	}
	_, err := db.Collection(CollectionRideRequests).Indexes().CreateMany(ctx, indexes)
	return err
}

func createTripIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id_demande_course", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "id_personnel", Value: 1}, {Key: "date_prise_en_charge", Value: 1}}},
	}
	_, err := db.Collection(CollectionTrips).Indexes().CreateMany(ctx, indexes)
	return err
}

func createIncidentIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id_trajet", Value: 1}, {Key: "date_incident", Value: -1}}},
		{Keys: bson.D{{Key: "date_incident", Value: -1}}},
	}
	_, err := db.Collection(CollectionIncidents).Indexes().CreateMany(ctx, indexes)
	return err
}
