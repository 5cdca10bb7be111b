package mongodb

import (
	"context"
	"fmt"
	"time"

	"hotelops/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sequence hands out increasing integer ids per collection from the
// counters collection, so documents keep the relational id shape.
type sequence struct {
	counters *mongo.Collection
	name     string
}

func newSequence(db *mongo.Database, name string) *sequence {
	return &sequence{
		counters: db.Collection(database.CollectionCounters),
		name:     name,
	}
}

func (s *sequence) next(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", s.name, err)
	}
	return counter.Value, nil
}

// addRange sets an inclusive range on field when either bound is given.
func addRange(filter bson.M, field string, from, to *time.Time) {
	if from == nil && to == nil {
		return
	}
	bounds := bson.M{}
	if from != nil {
		bounds["$gte"] = from.UTC()
	}
	if to != nil {
		bounds["$lte"] = to.UTC()
	}
	filter[field] = bounds
}
