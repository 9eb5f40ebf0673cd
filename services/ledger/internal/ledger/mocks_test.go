package ledger

import (
	"context"
	"sync"
)

type MockReservationRepo struct {
	mu    sync.Mutex
	items map[string]*Reservation

	GetFunc  func(ctx context.Context, ticketID string) (*Reservation, error)
	SaveFunc func(ctx context.Context, reservation *Reservation) error
}

func NewMockReservationRepo(rs ...*Reservation) *MockReservationRepo {
	m := &MockReservationRepo{items: make(map[string]*Reservation)}
	for _, r := range rs {
		m.items[r.TicketID] = r
	}
	return m
}

func (m *MockReservationRepo) Get(ctx context.Context, ticketID string) (*Reservation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ticketID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[ticketID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockReservationRepo) List(ctx context.Context) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Reservation, 0, len(m.items))
	for _, r := range m.items {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockReservationRepo) Save(ctx context.Context, reservation *Reservation) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, reservation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reservation
	m.items[reservation.TicketID] = &cp
	return nil
}

type MockOrderRecordRepo struct {
	mu    sync.Mutex
	items map[string]*OrderRecord
	saves int

	GetFunc  func(ctx context.Context, ticketID, ledger string) (*OrderRecord, error)
	SaveFunc func(ctx context.Context, record *OrderRecord) error
}

func NewMockOrderRecordRepo() *MockOrderRecordRepo {
	return &MockOrderRecordRepo{items: make(map[string]*OrderRecord)}
}

func (m *MockOrderRecordRepo) Get(ctx context.Context, ticketID, ledger string) (*OrderRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ticketID, ledger)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[OrderRecordID(ticketID, ledger)]
	if !ok {
		return nil, nil
	}
	return r.clone(), nil
}

func (m *MockOrderRecordRepo) ListByTicket(ctx context.Context, ticketID string) ([]*OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*OrderRecord
	for _, r := range m.items {
		if r.TicketID == ticketID {
			out = append(out, r.clone())
		}
	}
	return out, nil
}

func (m *MockOrderRecordRepo) Save(ctx context.Context, record *OrderRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.items[record.ID] = record.clone()
	return nil
}

func (m *MockOrderRecordRepo) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (r *OrderRecord) clone() *OrderRecord {
	cp := *r
	cp.Items = append(cp.Items[:0:0], r.Items...)
	return &cp
}

type MockMenuItemRepo struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
	ids  []string

	ListFunc func(ctx context.Context) ([]map[string]interface{}, error)
}

func NewMockMenuItemRepo() *MockMenuItemRepo {
	return &MockMenuItemRepo{docs: make(map[string]map[string]interface{})}
}

func (m *MockMenuItemRepo) List(ctx context.Context) ([]map[string]interface{}, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.docs[id])
	}
	return out, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, id string, doc map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		m.ids = append(m.ids, id)
	}
	m.docs[id] = doc
	return nil
}

type published struct {
	topic string
	msg   []byte
}

type MockPublisher struct {
	mu       sync.Mutex
	messages []published

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	m.messages = append(m.messages, published{topic: topic, msg: msg})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

func (m *MockPublisher) Messages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.messages...)
}

func newTestReservation(ticketID string) *Reservation {
	r := NewReservation(ticketID)
	r.Date = "2025-03-14"
	r.TimeRange = "6:00 PM - 9:00 PM"
	r.GuestName = "Asha"
	r.BeforeCreate()
	return r
}

func newTestRepos(rs ...*Reservation) Repos {
	return Repos{
		ReservationRepo: NewMockReservationRepo(rs...),
		OrderRecordRepo: NewMockOrderRecordRepo(),
		MenuItemRepo:    NewMockMenuItemRepo(),
	}
}
