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

// tripRepository relies on the unique index on id_demande_course created by
// the migrator.
type tripRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection(database.CollectionTrips),
		ids:        newSequence(db, database.CollectionTrips),
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	id, err := r.ids.next(ctx)
	if err != nil {
		return err
	}
	trip.ID = id
	trip.PickupAt = trip.PickupAt.UTC()
	trip.DropoffAt = trip.DropoffAt.UTC()

	if _, err := r.collection.InsertOne(ctx, trip); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *tripRepository) GetByRideRequestID(ctx context.Context, rideRequestID int64) (*models.Trip, error) {
	return r.findOne(ctx, bson.M{"id_demande_course": rideRequestID})
}

func (r *tripRepository) findOne(ctx context.Context, filter bson.M) (*models.Trip, error) {
	var trip models.Trip
	if err := r.collection.FindOne(ctx, filter).Decode(&trip); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	trip.PickupAt = trip.PickupAt.UTC()
	trip.DropoffAt = trip.DropoffAt.UTC()
	return &trip, nil
}

func (r *tripRepository) ListByDriver(ctx context.Context, filter interfaces.TripFilter) ([]*models.Trip, error) {
	query := bson.M{"id_personnel": filter.DriverID}
	if filter.Status != nil {
		query["statut"] = *filter.Status
	}
	addRange(query, "date_prise_en_charge", filter.From, filter.To)

	opts := options.Find().SetSort(bson.D{
		{Key: "date_prise_en_charge", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	for _, trip := range trips {
		trip.PickupAt = trip.PickupAt.UTC()
		trip.DropoffAt = trip.DropoffAt.UTC()
	}
	return trips, nil
}

func (r *tripRepository) UpdateSchedule(ctx context.Context, id int64, pickupAt, dropoffAt time.Time) error {
	return r.guardedUpdate(ctx, id, models.TripStatusPending, bson.M{
		"date_prise_en_charge": pickupAt.UTC(),
		"date_depose":          dropoffAt.UTC(),
	})
}

func (r *tripRepository) UpdateStatus(ctx context.Context, id int64, from, to models.TripStatus) error {
	return r.guardedUpdate(ctx, id, from, bson.M{"statut": to})
}

func (r *tripRepository) guardedUpdate(ctx context.Context, id int64, expected models.TripStatus, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "statut": expected},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if result.MatchedCount == 0 {
		return missOrStale(ctx, r.collection, id)
	}
	return nil
}
