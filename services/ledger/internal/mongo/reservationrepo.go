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

type ReservationRepo struct {
	collection *mongo.Collection
}

func NewReservationRepo(db *mongo.Database) *ReservationRepo {
	return &ReservationRepo{
		collection: db.Collection("reservations"),
	}
}

func (r *ReservationRepo) Get(ctx context.Context, ticketID string) (*ledger.Reservation, error) {
	var reservation ledger.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": ticketID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get reservation: %w", err)
	}
	reservation.OccasionDetails = plainMap(reservation.OccasionDetails)
	return &reservation, nil
}

func (r *ReservationRepo) List(ctx context.Context) ([]*ledger.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*ledger.Reservation
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode reservations: %w", err)
	}
	for _, res := range result {
		res.OccasionDetails = plainMap(res.OccasionDetails)
	}

	return result, nil
}

func (r *ReservationRepo) Save(ctx context.Context, reservation *ledger.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	filter := bson.M{"_id": reservation.TicketID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, reservation, opts); err != nil {
		return fmt.Errorf("cannot save reservation: %w", err)
	}

	return nil
}
