package ledger

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/seed"
)

// DemoTicketID is a reservation whose show is running whenever the demo
// seeds were last applied.
const DemoTicketID = "DEMO-TONIGHT"

// ApplyDemoSeeds applies the standard seeds and then books the demo ticket
// around the current time, so that ordering is open right away.
func ApplyDemoSeeds(ctx context.Context, repos Repos, tracker seed.Tracker, seedFS embed.FS, now time.Time, logger core.Logger) error {
	if err := ApplySeeds(ctx, repos, tracker, seedFS, logger); err != nil {
		return fmt.Errorf("apply standard ledger seeds: %w", err)
	}

	day := now.Format("2006-01-02")
	demo := seed.Seed{
		ID:          fmt.Sprintf("%s_demo_reservation_%s", day, seedIdentifier(DemoTicketID)),
		Description: "Book the demo ticket for the current show",
		Run: func(ctx context.Context) error {
			return bookDemoTicket(ctx, repos.ReservationRepo, now, logger)
		},
	}

	logger.Info("Applying demo reservation", "ticket_id", DemoTicketID, "date", day)
	return seed.Apply(ctx, tracker, []seed.Seed{demo}, ledgerSeedApplication)
}

// DemoWindow is a two and a half hour show that started half an hour before
// now.
func DemoWindow(now time.Time) (date, timeRange string) {
	start := now.Add(-30 * time.Minute).Truncate(time.Minute)
	end := start.Add(150 * time.Minute)
	return start.Format("2006-01-02"), fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
}

func bookDemoTicket(ctx context.Context, repo ReservationRepo, now time.Time, logger core.Logger) error {
	res, err := repo.Get(ctx, DemoTicketID)
	if err != nil {
		return fmt.Errorf("get demo reservation: %w", err)
	}
	if res == nil {
		res = NewReservation(DemoTicketID)
		res.BeforeCreate()
	}

	res.Date, res.TimeRange = DemoWindow(now)
	res.GuestName = "Demo Guest"
	res.Venue = "Screen 1"
	res.OccasionDetails = map[string]interface{}{
		"type":             "birthday",
		"celebrant":        "Demo Guest",
		"age":              30,
		"decorationCharge": 499,
	}
	res.BeforeUpdate()

	if err := repo.Save(ctx, res); err != nil {
		return fmt.Errorf("save demo reservation: %w", err)
	}

	logger.Info("Demo reservation booked", "ticket_id", DemoTicketID, "date", res.Date, "time_range", res.TimeRange)
	return nil
}

// DemoSeedingFunc returns a lifecycle OnStart function which applies the
// demo seeds in the background.
func DemoSeedingFunc(seedCtx context.Context, repos Repos, tracker seed.Tracker, seedFS embed.FS, logger core.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = core.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo ledger seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, tracker, seedFS, time.Now(), logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo ledger seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo ledger seeding completed successfully")
			}
		}()
		return nil
	}
}
