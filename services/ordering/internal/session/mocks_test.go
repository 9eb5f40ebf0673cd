package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/seatside/pkg/enums/orderstatus"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/events"
)

// MockBoundary keeps an in-memory ledger that follows the ledger service's
// mutation rules. Any Func field overrides the default behaviour.
type MockBoundary struct {
	mu          sync.Mutex
	reservation ledgerapi.Reservation
	orders      map[string]ledgerapi.OrderView
	menu        []map[string]interface{}
	nextID      int

	Submitted []ledgerapi.OrderMutation

	SubmitFunc           func(ctx context.Context, ticketID, ledger string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error)
	FetchReservationFunc func(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error)
	FetchMenuFunc        func(ctx context.Context) ([]map[string]interface{}, error)
}

func NewMockBoundary(r ledgerapi.Reservation) *MockBoundary {
	return &MockBoundary{
		reservation: r,
		orders:      make(map[string]ledgerapi.OrderView),
		menu: []map[string]interface{}{
			{"id": "paneer-tikka", "name": "Paneer Tikka", "category": "Starters", "halfPrice": 150, "fullPrice": 280},
			{"id": "brownie", "name": "Chocolate Brownie", "price": 130},
		},
	}
}

func (m *MockBoundary) SetOrder(ledger string, v ledgerapi.OrderView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[ledger] = v
}

func (m *MockBoundary) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

func (m *MockBoundary) SubmitOrderMutation(ctx context.Context, ticketID, ledger string, mut ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, mut)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, ticketID, ledger, mut)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ticketID != m.reservation.TicketID {
		return ledgerapi.MutationResult{Code: ledgerapi.CodeTicketNotFound}, ledgerapi.ErrTicketNotFound
	}

	view := m.orders[ledger]
	status := orderstatus.Parse(view.Status)
	st := orderstatus.Statuses

	switch {
	case (mut.HasReplace() || mut.HasRemove()) && status.IsTerminal():
		res := ledgerapi.MutationResult{Order: view, Error: "order already delivered", Code: ledgerapi.CodeAlreadyDelivered}
		return res, &ledgerapi.RejectedError{Code: res.Code, Message: res.Error}
	case mut.HasReplace():
		items := make([]ledgerapi.OrderedItem, 0, len(mut.Items))
		for _, it := range mut.Items {
			if it.ItemID == "" {
				m.nextID++
				it.ItemID = fmt.Sprintf("item-%d", m.nextID)
			}
			items = append(items, it)
		}
		view.Items = items
		view.Status = st.Placed.Code()
		if len(items) == 0 {
			view.Status = st.Cancelled.Code()
		}
	case mut.HasRemove():
		kept := view.Items[:0:0]
		for _, it := range view.Items {
			if !contains(mut.RemoveItemIDs, it.ItemID) {
				kept = append(kept, it)
			}
		}
		view.Items = kept
		if len(kept) == 0 {
			view.Status = st.Draft.Code()
		}
	case mut.MarkReady:
		view.Status = st.Ready.Code()
	case mut.MarkDelivered:
		view.Status = st.Delivered.Code()
	}

	view.Total = ledgerapi.TotalOf(view.Items)
	m.orders[ledger] = view
	return ledgerapi.MutationResult{Success: true, Order: view}, nil
}

func (m *MockBoundary) FetchReservation(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error) {
	if m.FetchReservationFunc != nil {
		return m.FetchReservationFunc(ctx, ticketID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ticketID != m.reservation.TicketID {
		return ledgerapi.ReservationSnapshot{}, ledgerapi.ErrTicketNotFound
	}
	orders := make(map[string]ledgerapi.OrderView, len(m.orders))
	for k, v := range m.orders {
		v.Items = ledgerapi.CloneItems(v.Items)
		orders[k] = v
	}
	return ledgerapi.ReservationSnapshot{Reservation: m.reservation, ExistingOrders: orders}, nil
}

func (m *MockBoundary) FetchMenu(ctx context.Context) ([]map[string]interface{}, error) {
	if m.FetchMenuFunc != nil {
		return m.FetchMenuFunc(ctx)
	}
	return m.menu, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MockSubscriber records the handler registered for each topic.
type MockSubscriber struct {
	mu       sync.Mutex
	handlers map[string]events.HandlerFunc
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{handlers: make(map[string]events.HandlerFunc)}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	if h == nil {
		return fmt.Errorf("no handler for %s", topic)
	}
	return h(ctx, msg)
}
