package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
)

// Deps are shared by every session of a registry.
type Deps struct {
	Boundary Boundary
	Window   *window.Calculator
	Logger   core.Logger
}

// Registry keeps one session per ticket.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = core.NewNoopLogger()
	}
	if deps.Window == nil {
		deps.Window = window.NewCalculator(window.DefaultLead, nil)
	}
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

// Open returns the cached session for ticketID or loads the reservation
// and its existing orders from the boundary. Sessions whose window has
// closed are dropped from the cache; they are served fresh on every call.
func (r *Registry) Open(ctx context.Context, ticketID string) (*Session, error) {
	if s, ok := r.Get(ticketID); ok {
		if !s.expired() {
			return s, nil
		}
		r.Close(ticketID)
	}

	snap, err := r.deps.Boundary.FetchReservation(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", ticketID, err)
	}
	if snap.Reservation.TicketID == "" {
		snap.Reservation.TicketID = ticketID
	}

	s := newSession(snap, r.deps)
	if s.expired() {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.sessions[ticketID]; ok {
		return cached, nil
	}
	r.sweepLocked()
	r.sessions[ticketID] = s
	r.deps.Logger.Info("session opened", "ticket_id", ticketID, "orders", len(snap.ExistingOrders))
	return s, nil
}

// Sweep drops every cached session whose window has closed and returns how
// many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	n := 0
	for id, s := range r.sessions {
		if s.expired() {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.deps.Logger.Debug("expired sessions dropped", "count", n)
	}
	return n
}

func (r *Registry) Get(ticketID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ticketID]
	return s, ok
}

func (r *Registry) Close(ticketID string) {
	r.mu.Lock()
	delete(r.sessions, ticketID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
