package ledger

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/seed"
)

const ledgerSeedApplication = "ledger"

type bootstrapSeedDocument struct {
	Reservations []reservationSeed        `json:"reservations"`
	MenuItems    []map[string]interface{} `json:"menu_items"`
}

type reservationSeed struct {
	TicketID  string                 `json:"ticket_id"`
	Date      string                 `json:"date"`
	TimeRange string                 `json:"time_range"`
	GuestName string                 `json:"guest_name"`
	Venue     string                 `json:"venue"`
	Occasion  map[string]interface{} `json:"occasion"`
}

func loadSeeds(seedFS embed.FS) (bootstrapSeedDocument, error) {
	var doc bootstrapSeedDocument

	seedBytes, err := seedFS.ReadFile("seed.json")
	if err != nil {
		return doc, fmt.Errorf("read seed.json: %w", err)
	}
	if len(seedBytes) == 0 {
		return doc, errors.New("ledger seed file is empty")
	}
	if err := json.Unmarshal(seedBytes, &doc); err != nil {
		return doc, fmt.Errorf("decode ledger seed file: %w", err)
	}
	return doc, nil
}

// ApplySeeds ensures the seeded reservations and menu documents exist.
func ApplySeeds(ctx context.Context, repos Repos, tracker seed.Tracker, seedFS embed.FS, logger core.Logger) error {
	if repos.ReservationRepo == nil || repos.MenuItemRepo == nil {
		return errors.New("reservation and menu item repositories are required")
	}

	doc, err := loadSeeds(seedFS)
	if err != nil {
		return err
	}

	defs := buildSeedDefinitions(doc, repos, logger)
	if len(defs) == 0 {
		logger.Info("No ledger seeds to apply")
		return nil
	}

	logger.Info("Applying ledger seeds", "count", len(defs))
	if err := seed.Apply(ctx, tracker, defs, ledgerSeedApplication); err != nil {
		return err
	}
	logger.Info("Ledger seeds applied successfully")
	return nil
}

func buildSeedDefinitions(doc bootstrapSeedDocument, repos Repos, logger core.Logger) []seed.Seed {
	var defs []seed.Seed

	for _, s := range doc.Reservations {
		seedData := s
		if strings.TrimSpace(seedData.TicketID) == "" {
			logger.Info("Skipping seed reservation with empty ticket id")
			continue
		}

		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2024-12-01_reservation_%s", seedIdentifier(seedData.TicketID)),
			Description: fmt.Sprintf("Ensure reservation %s exists", seedData.TicketID),
			Run: func(ctx context.Context) error {
				return seedData.ensure(ctx, repos.ReservationRepo, logger)
			},
		})
	}

	for i, item := range doc.MenuItems {
		menuDoc := item
		id, _ := menuDoc["id"].(string)
		if strings.TrimSpace(id) == "" {
			id = fmt.Sprintf("menu-%d", i)
		}

		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2024-12-01_menu_item_%s", seedIdentifier(id)),
			Description: fmt.Sprintf("Ensure menu item %s exists", id),
			Run: func(ctx context.Context) error {
				return repos.MenuItemRepo.Save(ctx, id, menuDoc)
			},
		})
	}

	return defs
}

func (s reservationSeed) ensure(ctx context.Context, repo ReservationRepo, logger core.Logger) error {
	existing, err := repo.Get(ctx, s.TicketID)
	if err != nil {
		return fmt.Errorf("get reservation %s: %w", s.TicketID, err)
	}
	if existing != nil {
		logger.Info("Seed reservation already exists", "ticket_id", s.TicketID)
		return nil
	}

	res := NewReservation(s.TicketID)
	res.Date = s.Date
	res.TimeRange = s.TimeRange
	res.GuestName = s.GuestName
	res.Venue = s.Venue
	res.OccasionDetails = s.Occasion
	if errs := ValidateReservation(res); len(errs) > 0 {
		return fmt.Errorf("seed reservation %s: %s", s.TicketID, strings.Join(errs, "; "))
	}
	res.BeforeCreate()

	if err := repo.Save(ctx, res); err != nil {
		return fmt.Errorf("create seed reservation %s: %w", s.TicketID, err)
	}

	logger.Info("Seed reservation created", "ticket_id", s.TicketID, "date", s.Date)
	return nil
}

func seedIdentifier(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}

	replacer := strings.NewReplacer("-", "_", " ", "_", "/", "_", "\\", "_")
	value = replacer.Replace(value)

	var builder strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			builder.WriteRune(r)
		}
	}

	result := builder.String()
	if result == "" {
		return "seed"
	}
	return result
}

// SeedingFunc returns a lifecycle OnStart function which applies the ledger
// seeds in the background.
func SeedingFunc(seedCtx context.Context, repos Repos, tracker seed.Tracker, seedFS embed.FS, logger core.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = core.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting ledger seeding in background")
		go func() {
			if err := ApplySeeds(seedCtx, repos, tracker, seedFS, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Ledger seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Ledger seeding completed successfully")
			}
		}()
		return nil
	}
}

// StopFunc returns a lifecycle OnStop function which cancels background
// seeding.
func StopFunc(cancelFunc context.CancelFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if cancelFunc != nil {
			cancelFunc()
		}
		return nil
	}
}
