package mongodb

import (
	"context"
	"errors"
	"fmt"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
	"hotelops/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRequestRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewRideRequestRepository(db *mongo.Database) interfaces.RideRequestRepository {
	return &rideRequestRepository{
		collection: db.Collection(database.CollectionRideRequests),
		ids:        newSequence(db, database.CollectionRideRequests),
	}
}

func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	id, err := r.ids.next(ctx)
	if err != nil {
		return err
	}
	request.ID = id
	request.RequestedAt = request.RequestedAt.UTC()

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}
	return nil
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	var request models.RideRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ride request: %w", err)
	}
	request.RequestedAt = request.RequestedAt.UTC()
	return &request, nil
}

func (r *rideRequestRepository) List(ctx context.Context, filter interfaces.RideRequestFilter) ([]*models.RideRequest, error) {
	query := bson.M{}
	if filter.ClientID != nil {
		query["id_client"] = *filter.ClientID
	}
	if filter.Status != nil {
		query["statut"] = *filter.Status
	}
	addRange(query, "date_demande", filter.From, filter.To)

	direction := -1
	if filter.Ascending {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "date_demande", Value: direction},
		{Key: "_id", Value: direction},
	})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ride requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.RideRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode ride requests: %w", err)
	}
	for _, request := range requests {
		request.RequestedAt = request.RequestedAt.UTC()
	}
	return requests, nil
}

func (r *rideRequestRepository) UpdateLocations(ctx context.Context, id int64, pickup, dropoff string) error {
	return r.guardedUpdate(ctx, id, models.RideRequestStatusPending, bson.M{
		"lieu_depart":  pickup,
		"lieu_arrivee": dropoff,
	})
}

func (r *rideRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RideRequestStatus) error {
	return r.guardedUpdate(ctx, id, from, bson.M{"statut": to})
}

func (r *rideRequestRepository) guardedUpdate(ctx context.Context, id int64, expected models.RideRequestStatus, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "statut": expected},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride request: %w", err)
	}
	if result.MatchedCount == 0 {
		return missOrStale(ctx, r.collection, id)
	}
	return nil
}

func (r *rideRequestRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete ride request: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func missOrStale(ctx context.Context, collection *mongo.Collection, id int64) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", collection.Name(), err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrStaleState
}
