package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/seatside/services/ledger/internal/ledger"
)

type OrderRecordRepo struct {
	collection *mongo.Collection
}

func NewOrderRecordRepo(db *mongo.Database) *OrderRecordRepo {
	return &OrderRecordRepo{
		collection: db.Collection("order_records"),
	}
}

// EnsureIndexes creates the ticket lookup index.
func (r *OrderRecordRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ticket_id", Value: 1}, {Key: "ledger", Value: 1}},
		Options: options.Index().SetName("ticket_ledger"),
	})
	if err != nil {
		return fmt.Errorf("cannot create order record indexes: %w", err)
	}
	return nil
}

func (r *OrderRecordRepo) Get(ctx context.Context, ticketID, ledgerName string) (*ledger.OrderRecord, error) {
	var record ledger.OrderRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": ledger.OrderRecordID(ticketID, ledgerName)}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order record: %w", err)
	}
	return &record, nil
}

func (r *OrderRecordRepo) ListByTicket(ctx context.Context, ticketID string) ([]*ledger.OrderRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ledger", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ticket_id": ticketID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list order records by ticket: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*ledger.OrderRecord
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode order records: %w", err)
	}

	return result, nil
}

func (r *OrderRecordRepo) Save(ctx context.Context, record *ledger.OrderRecord) error {
	if record == nil {
		return fmt.Errorf("order record is nil")
	}

	filter := bson.M{"_id": record.ID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		return fmt.Errorf("cannot save order record: %w", err)
	}

	return nil
}
