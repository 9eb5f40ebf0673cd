// Package reconcile applies optimistic changes to local state and rolls
// them back when the persistence boundary refuses them.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/appetiteclub/seatside/pkg/lib/core"
)

// ErrMutationInFlight rejects a mutation on a record that already has one
// outstanding.
var ErrMutationInFlight = errors.New("another change to this record is still in progress")

// Store holds the local view of one logical record.
type Store[S any] struct {
	name  string
	clone func(S) S

	mu       sync.Mutex
	value    S
	inFlight bool
}

// NewStore creates a store. clone must return a deep copy; snapshots and
// reads go through it.
func NewStore[S any](name string, initial S, clone func(S) S) *Store[S] {
	return &Store[S]{name: name, value: initial, clone: clone}
}

func (s *Store[S]) Name() string { return s.name }

// Get returns a copy of the current value.
func (s *Store[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clone(s.value)
}

// InFlight reports whether a mutation is outstanding.
func (s *Store[S]) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Replace overwrites the value with a fresh authoritative read. It is refused
// while a mutation is in flight.
func (s *Store[S]) Replace(v S) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.value = s.clone(v)
	return true
}

// begin marks the store busy and returns a snapshot.
func (s *Store[S]) begin() (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		var zero S
		return zero, ErrMutationInFlight
	}
	s.inFlight = true
	return s.clone(s.value), nil
}

func (s *Store[S]) set(v S) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

func (s *Store[S]) end(v S) {
	s.mu.Lock()
	s.value = v
	s.inFlight = false
	s.mu.Unlock()
}

// Mutation describes one change. Apply is the pure local change; its errors
// are validation failures and leave the store untouched. Commit sends the
// new state to the boundary; nil makes the mutation local only. Adopt merges
// the boundary's echo into the optimistic state; nil keeps the optimistic
// state.
type Mutation[S, R any] struct {
	Name   string
	Apply  func(S) (S, error)
	Commit func(ctx context.Context, next S) (R, error)
	Adopt  func(next S, echo R) S
}

// Reconciler runs mutations and logs their outcome.
type Reconciler struct {
	logger core.Logger
}

func New(logger core.Logger) *Reconciler {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Reconciler{logger: logger}
}

// Run snapshots the store, applies the change optimistically, commits it and
// either adopts the echo or restores the snapshot exactly. It returns the
// resulting value.
func Run[S, R any](ctx context.Context, rc *Reconciler, st *Store[S], m Mutation[S, R]) (S, error) {
	if rc == nil {
		rc = New(nil)
	}

	snapshot, err := st.begin()
	if err != nil {
		return st.Get(), err
	}

	next, err := m.Apply(st.clone(snapshot))
	if err != nil {
		st.end(snapshot)
		return st.clone(snapshot), err
	}

	if m.Commit == nil {
		st.end(next)
		return st.clone(next), nil
	}

	st.set(st.clone(next))

	echo, err := commit(ctx, m, st.clone(next))
	if err != nil {
		st.end(snapshot)
		rc.logger.Error("change rolled back", "store", st.name, "mutation", m.Name, "error", err)
		return st.clone(snapshot), fmt.Errorf("%s: %w", m.Name, err)
	}

	if m.Adopt != nil {
		next = m.Adopt(next, echo)
	}
	st.end(next)
	rc.logger.Debug("change committed", "store", st.name, "mutation", m.Name)
	return st.clone(next), nil
}

// commit turns a panicking boundary call into an error so the snapshot is
// still restored.
func commit[S, R any](ctx context.Context, m Mutation[S, R], next S) (echo R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("boundary call panicked: %v", p)
		}
	}()
	return m.Commit(ctx, next)
}
