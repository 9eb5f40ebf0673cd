package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/seatside/pkg/event"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/events"
)

// Service owns the order record rules.
type Service struct {
	repos     Repos
	publisher events.Publisher
	logger    core.Logger
	locks     *keyedMutex
}

func NewService(repos Repos, publisher events.Publisher, logger core.Logger) *Service {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Service{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
		locks:     newKeyedMutex(),
	}
}

// Reservation returns the ticket and every ledger already holding an order.
func (s *Service) Reservation(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error) {
	res, err := s.repos.ReservationRepo.Get(ctx, ticketID)
	if err != nil {
		return ledgerapi.ReservationSnapshot{}, fmt.Errorf("cannot get reservation: %w", err)
	}
	if res == nil {
		return ledgerapi.ReservationSnapshot{}, ErrTicketNotFound
	}

	records, err := s.repos.OrderRecordRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		return ledgerapi.ReservationSnapshot{}, fmt.Errorf("cannot list orders: %w", err)
	}

	snap := ledgerapi.ReservationSnapshot{
		Reservation:    res.API(),
		ExistingOrders: make(map[string]ledgerapi.OrderView, len(records)),
	}
	for _, rec := range records {
		snap.ExistingOrders[rec.Ledger] = rec.View()
	}
	return snap, nil
}

// Mutate applies m to the (ticketID, ledger) record. Refusals are reported in
// the result; the error is reserved for storage failures.
func (s *Service) Mutate(ctx context.Context, ticketID, ledger string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
	log := s.logger.With("ticket_id", ticketID, "ledger", ledger)

	if !ledgerapi.ValidLedgerName(ledger) {
		return rejected(nil, fmt.Errorf("%w: %q", ErrInvalidLedger, ledger)), nil
	}

	unlock := s.locks.Lock(OrderRecordID(ticketID, ledger))
	defer unlock()

	res, err := s.repos.ReservationRepo.Get(ctx, ticketID)
	if err != nil {
		return ledgerapi.MutationResult{}, fmt.Errorf("cannot get reservation: %w", err)
	}
	if res == nil {
		return rejected(nil, ErrTicketNotFound), nil
	}

	rec, err := s.repos.OrderRecordRepo.Get(ctx, ticketID, ledger)
	if err != nil {
		return ledgerapi.MutationResult{}, fmt.Errorf("cannot get order record: %w", err)
	}
	if rec == nil {
		rec = NewOrderRecord(ticketID, ledger)
		rec.BeforeCreate()
	}

	current := rec.View()
	action, err := rec.Apply(m)
	if err != nil {
		log.Debug("mutation refused", "error", err)
		return rejected(&current, err), nil
	}

	if err := s.repos.OrderRecordRepo.Save(ctx, rec); err != nil {
		return ledgerapi.MutationResult{}, fmt.Errorf("cannot save order record: %w", err)
	}

	log.Info("order record changed", "action", action, "status", rec.Status, "items", len(rec.Items), "total", rec.Total)
	s.publishOrderChanged(ctx, rec, action)

	return ledgerapi.MutationResult{Success: true, Order: rec.View()}, nil
}

// MenuFeed returns the raw menu documents.
func (s *Service) MenuFeed(ctx context.Context) ([]map[string]interface{}, error) {
	items, err := s.repos.MenuItemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	if items == nil {
		items = []map[string]interface{}{}
	}
	return items, nil
}

func (s *Service) publishOrderChanged(ctx context.Context, rec *OrderRecord, action string) {
	if s.publisher == nil {
		return
	}

	evt := event.OrderChangedEvent{
		EventID:    core.GenerateNewID().String(),
		EventType:  event.EventOrderChanged,
		OccurredAt: time.Now().UTC(),
		TicketID:   rec.TicketID,
		Ledger:     rec.Ledger,
		Status:     rec.Status,
		ItemCount:  len(rec.Items),
		Total:      rec.Total,
		Action:     action,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot encode order changed event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, event.LedgerOrdersTopic, payload); err != nil {
		s.logger.Error("cannot publish order changed event", "ticket_id", rec.TicketID, "ledger", rec.Ledger, "error", err)
	}
}

func rejected(current *ledgerapi.OrderView, err error) ledgerapi.MutationResult {
	res := ledgerapi.MutationResult{Success: false, Error: err.Error(), Code: codeFor(err)}
	if current != nil {
		res.Order = *current
	}
	return res
}

// keyedMutex serializes work per key and forgets idle keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
