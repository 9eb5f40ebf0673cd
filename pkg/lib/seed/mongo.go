package seed

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "seeds"

type seedRecord struct {
	ID          string    `bson:"_id"`
	Application string    `bson:"application"`
	SeedID      string    `bson:"seed_id"`
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
}

// MongoTracker records applied seeds in the "seeds" collection.
type MongoTracker struct {
	collection *mongo.Collection
}

func NewMongoTracker(db *mongo.Database) *MongoTracker {
	return &MongoTracker{collection: db.Collection(mongoCollection)}
}

func (t *MongoTracker) Applied(ctx context.Context, application, id string) (bool, error) {
	n, err := t.collection.CountDocuments(ctx, bson.M{"_id": recordID(application, id)})
	if err != nil {
		return false, fmt.Errorf("cannot query seeds: %w", err)
	}
	return n > 0, nil
}

func (t *MongoTracker) Record(ctx context.Context, application string, s Seed) error {
	rec := seedRecord{
		ID:          recordID(application, s.ID),
		Application: application,
		SeedID:      s.ID,
		Description: s.Description,
		AppliedAt:   time.Now().UTC(),
	}
	_, err := t.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot record seed: %w", err)
	}
	return nil
}

func recordID(application, id string) string {
	return application + ":" + id
}
