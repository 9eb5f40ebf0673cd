package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ClearDemo removes the demo reservation, its orders and the seed records
// that booked it, so the next demo start books it again.
func ClearDemo(ctx context.Context, config *core.Config, logger core.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	return clearDemo(ctx, db, logger)
}

func clearDemo(ctx context.Context, db *mongo.Database, logger core.Logger) error {
	records, err := db.Collection("order_records").DeleteMany(ctx, bson.M{"ticket_id": demoTicketID})
	if err != nil {
		return fmt.Errorf("delete demo order records: %w", err)
	}
	logger.Info("Deleted demo order records", "count", records.DeletedCount)

	res, err := db.Collection("reservations").DeleteOne(ctx, bson.M{"_id": demoTicketID})
	if err != nil {
		return fmt.Errorf("delete demo reservation: %w", err)
	}
	logger.Info("Deleted demo reservation", "count", res.DeletedCount)

	seeds, err := db.Collection("seeds").DeleteMany(ctx, demoSeedFilter())
	if err != nil {
		return fmt.Errorf("delete demo seed records: %w", err)
	}
	logger.Info("Cleared demo seed records", "count", seeds.DeletedCount)

	return nil
}

func demoSeedFilter() bson.M {
	return bson.M{
		"application": "ledger",
		"seed_id":     primitive.Regex{Pattern: "_demo_reservation_", Options: ""},
	}
}
