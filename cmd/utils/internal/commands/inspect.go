package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type reservationDoc struct {
	TicketID  string `bson:"_id"`
	Date      string `bson:"date"`
	TimeRange string `bson:"time_range"`
	GuestName string `bson:"guest_name"`
	Venue     string `bson:"venue"`
}

type orderRecordDoc struct {
	Ledger string                  `bson:"ledger"`
	Status string                  `bson:"status"`
	Total  float64                 `bson:"total"`
	Items  []ledgerapi.OrderedItem `bson:"items"`
}

// Inspect prints the reservation and every order record of ticketID.
func Inspect(ctx context.Context, config *core.Config, logger core.Logger, ticketID string, out io.Writer) error {
	if ticketID == "" {
		return errors.New("ticket id is required")
	}

	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	var res reservationDoc
	err = db.Collection("reservations").FindOne(ctx, bson.M{"_id": ticketID}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("ticket %s not found", ticketID)
	}
	if err != nil {
		return fmt.Errorf("get reservation: %w", err)
	}

	cursor, err := db.Collection("order_records").Find(ctx, bson.M{"ticket_id": ticketID})
	if err != nil {
		return fmt.Errorf("list order records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []orderRecordDoc
	if err := cursor.All(ctx, &records); err != nil {
		return fmt.Errorf("decode order records: %w", err)
	}

	return writeTicket(out, res, records)
}

func writeTicket(out io.Writer, res reservationDoc, records []orderRecordDoc) error {
	fmt.Fprintf(out, "Ticket %s  %s  %s  %s %s\n", res.TicketID, res.GuestName, res.Venue, res.Date, res.TimeRange)
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "  no orders")
		return err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Ledger < records[j].Ledger })

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, rec := range records {
		fmt.Fprintf(tw, "\n[%s]\t%s\t\t%.2f\n", rec.Ledger, rec.Status, rec.Total)
		for _, it := range rec.Items {
			fmt.Fprintf(tw, "  %s\tx%d\t%.2f\t%s\n", it.Name, it.Quantity, it.UnitPrice, it.ItemID)
		}
	}
	return tw.Flush()
}
