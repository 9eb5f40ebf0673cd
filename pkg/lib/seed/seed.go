// Package seed applies idempotent data seeds once per application.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Seed is one named, run-once data change.
type Seed struct {
	ID          string
	Description string
	Run         func(ctx context.Context) error
}

// Tracker remembers which seeds an application already applied.
type Tracker interface {
	Applied(ctx context.Context, application, id string) (bool, error)
	Record(ctx context.Context, application string, s Seed) error
}

// Apply runs every seed not yet recorded for application, in order. It stops
// at the first failure; seeds that ran before it stay recorded.
func Apply(ctx context.Context, tracker Tracker, seeds []Seed, application string) error {
	if tracker == nil {
		return errors.New("seed tracker is required")
	}

	for _, s := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.ID == "" || s.Run == nil {
			return fmt.Errorf("seed %q is incomplete", s.Description)
		}

		done, err := tracker.Applied(ctx, application, s.ID)
		if err != nil {
			return fmt.Errorf("check seed %s: %w", s.ID, err)
		}
		if done {
			continue
		}

		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("run seed %s: %w", s.ID, err)
		}
		if err := tracker.Record(ctx, application, s); err != nil {
			return fmt.Errorf("record seed %s: %w", s.ID, err)
		}
	}
	return nil
}

// MemoryTracker keeps applied seeds in memory.
type MemoryTracker struct {
	mu      sync.Mutex
	applied map[string]time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{applied: make(map[string]time.Time)}
}

func (t *MemoryTracker) Applied(_ context.Context, application, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.applied[application+"/"+id]
	return ok, nil
}

func (t *MemoryTracker) Record(_ context.Context, application string, s Seed) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applied[application+"/"+s.ID] = time.Now()
	return nil
}
