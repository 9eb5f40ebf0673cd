package ordering

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

// MockBoundary answers the ordering service's ledger calls from memory.
type MockBoundary struct {
	mu          sync.Mutex
	reservation ledgerapi.Reservation
	orders      map[string]ledgerapi.OrderView
	calls       int

	SubmitFunc func(ctx context.Context, ticketID, ledger string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error)
}

func NewMockBoundary(r ledgerapi.Reservation) *MockBoundary {
	return &MockBoundary{reservation: r, orders: map[string]ledgerapi.OrderView{}}
}

func (m *MockBoundary) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockBoundary) SubmitOrderMutation(ctx context.Context, ticketID, ledger string, mut ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, ticketID, ledger, mut)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	view := m.orders[ledger]
	if mut.HasReplace() {
		view.Items = make([]ledgerapi.OrderedItem, 0, len(mut.Items))
		for i, it := range mut.Items {
			if it.ItemID == "" {
				it.ItemID = fmt.Sprintf("%s-%d", ledger, i)
			}
			view.Items = append(view.Items, it)
		}
		view.Status = "placed"
		if len(view.Items) == 0 {
			view.Status = "cancelled"
		}
	}
	view.Total = ledgerapi.TotalOf(view.Items)
	m.orders[ledger] = view
	return ledgerapi.MutationResult{Success: true, Order: view}, nil
}

func (m *MockBoundary) FetchReservation(ctx context.Context, ticketID string) (ledgerapi.ReservationSnapshot, error) {
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
	return []map[string]interface{}{
		{"id": "paneer-tikka", "name": "Paneer Tikka", "category": "Starters", "halfPrice": 150, "fullPrice": 280},
		{"id": "brownie", "name": "Chocolate Brownie", "price": 130},
	}, nil
}
