// Package session wires the ordering components together for one ticket.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/services/ordering/internal/cart"
	"github.com/appetiteclub/seatside/services/ordering/internal/lifecycle"
	"github.com/appetiteclub/seatside/services/ordering/internal/menu"
	"github.com/appetiteclub/seatside/services/ordering/internal/reconcile"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
)

var (
	ErrTicketNotFound    = ledgerapi.ErrTicketNotFound
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrNoDecoration      = errors.New("reservation has no decoration to add")
	ErrDecorationOrdered = errors.New("decoration already ordered")
	ErrInvalidLedgerName = errors.New("invalid ledger name")
)

// Boundary is the persistence boundary of the ordering service.
type Boundary interface {
	SubmitOrderMutation(ctx context.Context, ticketID, ledger string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error)
	FetchReservation(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error)
	FetchMenu(ctx context.Context) ([]map[string]interface{}, error)
}

// Session is the client view of one ticket: its reservation, its cart and
// one order record per ledger.
type Session struct {
	ticketID    string
	reservation ledgerapi.Reservation

	boundary Boundary
	window   *window.Calculator
	catalog  *menu.Catalog
	rc       *reconcile.Reconciler
	logger   core.Logger

	cart *reconcile.Store[cart.Cart]

	mu     sync.Mutex
	orders map[string]*reconcile.Store[lifecycle.Record]
	menu   *menu.Source
}

func newSession(snap ledgerapi.ReservationSnapshot, deps Deps) *Session {
	s := &Session{
		ticketID:    snap.Reservation.TicketID,
		reservation: snap.Reservation,
		boundary:    deps.Boundary,
		window:      deps.Window,
		catalog:     menu.NewCatalog(deps.Boundary, deps.Logger),
		rc:          reconcile.New(deps.Logger),
		logger:      deps.Logger.With("ticket_id", snap.Reservation.TicketID),
		cart:        reconcile.NewStore("cart", cart.Cart{}, cart.Cart.Clone),
		orders:      make(map[string]*reconcile.Store[lifecycle.Record]),
	}
	for ledger, view := range snap.ExistingOrders {
		s.orderStore(ledger).Replace(lifecycle.FromView(ledger, view))
	}
	return s
}

func (s *Session) TicketID() string { return s.ticketID }

func (s *Session) Reservation() ledgerapi.Reservation { return s.reservation }

// Window classifies the current instant against the reservation. It is
// recomputed on every call.
func (s *Session) Window() window.Status {
	return s.window.Check(s.reservation)
}

func (s *Session) expired() bool {
	return s.Window().Kind == window.TooLate
}

// Menu returns the catalog. A live menu is kept for the life of the session;
// the fallback is retried on the next call.
func (s *Session) Menu(ctx context.Context) menu.Source {
	s.mu.Lock()
	cached := s.menu
	s.mu.Unlock()
	if cached != nil {
		return *cached
	}

	src := s.catalog.Load(ctx)
	if !src.IsFallback() {
		s.mu.Lock()
		s.menu = &src
		s.mu.Unlock()
	}
	return src
}

func (s *Session) Cart() cart.Cart {
	return s.cart.Get()
}

// AddToCart resolves the chosen variant of a menu item and merges it into
// the cart.
func (s *Session) AddToCart(ctx context.Context, menuItemID, variant string, quantity int) (cart.Cart, error) {
	if err := s.Window().Err(); err != nil {
		return s.Cart(), err
	}

	item, ok := s.Menu(ctx).Find(menuItemID)
	if !ok {
		return s.Cart(), fmt.Errorf("%w: %s", ErrMenuItemNotFound, menuItemID)
	}
	line, err := menu.Resolve(item, variant, quantity)
	if err != nil {
		return s.Cart(), err
	}
	return s.changeCart(ctx, "add", cart.Add{Line: line})
}

// AddDecoration puts the occasion's decoration charge in the cart once. It
// is refused once any order carries the charge.
func (s *Session) AddDecoration(ctx context.Context) (cart.Cart, error) {
	if err := s.Window().Err(); err != nil {
		return s.Cart(), err
	}

	line, ok := DecorationLine(s.reservation.Occasion)
	if !ok {
		return s.Cart(), ErrNoDecoration
	}
	for ledger, rec := range s.Orders() {
		if rec.HasLine(line.ID) {
			return s.Cart(), fmt.Errorf("%w on %s", ErrDecorationOrdered, ledger)
		}
	}
	return reconcile.Run(ctx, s.rc, s.cart, reconcile.Mutation[cart.Cart, struct{}]{
		Name: "add decoration",
		Apply: func(c cart.Cart) (cart.Cart, error) {
			if _, exists := c.Get(line.ID); exists {
				return c, nil
			}
			return cart.Apply(c, cart.Add{Line: line})
		},
	})
}

func (s *Session) ChangeCartQuantity(ctx context.Context, lineID string, delta int) (cart.Cart, error) {
	return s.changeCart(ctx, "change quantity", cart.ChangeQuantity{ID: lineID, Delta: delta})
}

func (s *Session) RemoveFromCart(ctx context.Context, lineID string) (cart.Cart, error) {
	return s.changeCart(ctx, "remove", cart.Remove{ID: lineID})
}

func (s *Session) changeCart(ctx context.Context, name string, intent cart.Intent) (cart.Cart, error) {
	return reconcile.Run(ctx, s.rc, s.cart, reconcile.Mutation[cart.Cart, struct{}]{
		Name:  name,
		Apply: func(c cart.Cart) (cart.Cart, error) { return cart.Apply(c, intent) },
	})
}

// Order returns the client view of ledger. Ledgers without an order read as
// an empty draft. Reads never create a store.
func (s *Session) Order(ledger string) lifecycle.Record {
	s.mu.Lock()
	st, ok := s.orders[ledger]
	s.mu.Unlock()
	if !ok {
		return lifecycle.NewRecord(ledger)
	}
	return st.Get()
}

// Orders returns every ledger the session has seen.
func (s *Session) Orders() map[string]lifecycle.Record {
	s.mu.Lock()
	stores := make(map[string]*reconcile.Store[lifecycle.Record], len(s.orders))
	for k, v := range s.orders {
		stores[k] = v
	}
	s.mu.Unlock()

	out := make(map[string]lifecycle.Record, len(stores))
	for k, st := range stores {
		out[k] = st.Get()
	}
	return out
}

// PlaceOrder submits the cart to ledger. The window must be open and the
// cart non-empty. Submitted quantities leave the cart once the ledger
// accepts them; anything added meanwhile stays.
func (s *Session) PlaceOrder(ctx context.Context, ledger string) (lifecycle.Record, error) {
	if !ledgerapi.ValidLedgerName(ledger) {
		return lifecycle.NewRecord(ledger), fmt.Errorf("%w: %q", ErrInvalidLedgerName, ledger)
	}
	if err := s.Window().Err(); err != nil {
		return s.Order(ledger), err
	}

	submitted := s.Cart()
	if submitted.IsEmpty() {
		return s.Order(ledger), lifecycle.ErrEmptyCart
	}

	rec, err := s.changeOrder(ctx, ledger, "place order", lifecycle.Place{Lines: submitted.Lines})
	if err != nil {
		return rec, err
	}

	_, err = reconcile.Run(ctx, s.rc, s.cart, reconcile.Mutation[cart.Cart, struct{}]{
		Name: "clear submitted",
		Apply: func(c cart.Cart) (cart.Cart, error) {
			for _, l := range submitted.Lines {
				c.Take(l.ID, l.Quantity)
			}
			return c, nil
		},
	})
	if err != nil {
		s.logger.Error("cannot clear submitted cart lines", "ledger", ledger, "error", err)
	}
	return rec, nil
}

func (s *Session) CancelOrder(ctx context.Context, ledger string) (lifecycle.Record, error) {
	if err := s.Window().Err(); err != nil {
		return s.Order(ledger), err
	}
	return s.changeOrder(ctx, ledger, "cancel order", lifecycle.CancelAll{})
}

func (s *Session) CancelItem(ctx context.Context, ledger, itemID string) (lifecycle.Record, error) {
	if err := s.Window().Err(); err != nil {
		return s.Order(ledger), err
	}
	return s.changeOrder(ctx, ledger, "cancel item", lifecycle.CancelItem{ItemID: itemID})
}

func (s *Session) ChangeOrderedQuantity(ctx context.Context, ledger, itemID string, delta int) (lifecycle.Record, error) {
	if err := s.Window().Err(); err != nil {
		return s.Order(ledger), err
	}
	return s.changeOrder(ctx, ledger, "change ordered quantity", lifecycle.ChangeQuantity{ItemID: itemID, Delta: delta})
}

// MarkReady is a staff toggle and ignores the ordering window.
func (s *Session) MarkReady(ctx context.Context, ledger string) (lifecycle.Record, error) {
	return s.changeOrder(ctx, ledger, "mark ready", lifecycle.MarkReady{})
}

// MarkDelivered is a staff toggle and ignores the ordering window.
func (s *Session) MarkDelivered(ctx context.Context, ledger string) (lifecycle.Record, error) {
	return s.changeOrder(ctx, ledger, "mark delivered", lifecycle.MarkDelivered{})
}

func (s *Session) changeOrder(ctx context.Context, ledger, name string, intent lifecycle.Intent) (lifecycle.Record, error) {
	if !ledgerapi.ValidLedgerName(ledger) {
		return lifecycle.NewRecord(ledger), fmt.Errorf("%w: %q", ErrInvalidLedgerName, ledger)
	}

	return reconcile.Run(ctx, s.rc, s.orderStore(ledger), reconcile.Mutation[lifecycle.Record, ledgerapi.MutationResult]{
		Name: name,
		Apply: func(r lifecycle.Record) (lifecycle.Record, error) {
			return lifecycle.Apply(r, intent)
		},
		Commit: func(ctx context.Context, next lifecycle.Record) (ledgerapi.MutationResult, error) {
			return s.boundary.SubmitOrderMutation(ctx, s.ticketID, ledger, lifecycle.Mutation(next, intent))
		},
		Adopt: func(_ lifecycle.Record, echo ledgerapi.MutationResult) lifecycle.Record {
			return lifecycle.FromView(ledger, echo.Order)
		},
	})
}

// Refresh replaces every order view with a fresh authoritative read. Stores
// with a mutation in flight keep their optimistic value.
func (s *Session) Refresh(ctx context.Context) error {
	snap, err := s.boundary.FetchReservation(ctx, s.ticketID)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", s.ticketID, err)
	}

	for ledger, st := range s.storesFor(snap.ExistingOrders) {
		view, ok := snap.ExistingOrders[ledger]
		rec := lifecycle.NewRecord(ledger)
		if ok {
			rec = lifecycle.FromView(ledger, view)
		}
		if !st.Replace(rec) {
			s.logger.Debug("refresh skipped, change in flight", "ledger", ledger)
		}
	}
	return nil
}

// storesFor returns the known stores plus one for every ledger in views.
func (s *Session) storesFor(views map[string]ledgerapi.OrderView) map[string]*reconcile.Store[lifecycle.Record] {
	for ledger := range views {
		s.orderStore(ledger)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*reconcile.Store[lifecycle.Record], len(s.orders))
	for k, v := range s.orders {
		out[k] = v
	}
	return out
}

func (s *Session) orderStore(ledger string) *reconcile.Store[lifecycle.Record] {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.orders[ledger]
	if !ok {
		st = reconcile.NewStore("order/"+ledger, lifecycle.NewRecord(ledger), lifecycle.Record.Clone)
		s.orders[ledger] = st
	}
	return st
}

// DecorationLine builds the cart line for an occasion's decoration charge.
func DecorationLine(p ledgerapi.OccasionPayload) (cart.Line, bool) {
	occ := p.Occasion()
	if occ.Kind() == ledgerapi.OccasionNone || p.DecorationCharge <= 0 {
		return cart.Line{}, false
	}
	return cart.Line{
		ID:                 "decoration-" + string(occ.Kind()),
		Name:               "Decoration: " + occ.Title(),
		UnitPrice:          p.DecorationCharge,
		Quantity:           1,
		IsDecorationCharge: true,
		VegType:            menu.VegTypeVeg,
	}, true
}
