package ledger

import "context"

// ReservationRepo returns nil, nil for unknown tickets.
type ReservationRepo interface {
	Get(ctx context.Context, ticketID string) (*Reservation, error)
	List(ctx context.Context) ([]*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
}

// OrderRecordRepo returns nil, nil for a ledger without an order.
type OrderRecordRepo interface {
	Get(ctx context.Context, ticketID, ledger string) (*OrderRecord, error)
	ListByTicket(ctx context.Context, ticketID string) ([]*OrderRecord, error)
	Save(ctx context.Context, record *OrderRecord) error
}

// MenuItemRepo stores raw menu documents as the venue catalog keeps them.
type MenuItemRepo interface {
	List(ctx context.Context) ([]map[string]interface{}, error)
	Save(ctx context.Context, id string, doc map[string]interface{}) error
}

type Repos struct {
	ReservationRepo ReservationRepo
	OrderRecordRepo OrderRecordRepo
	MenuItemRepo    MenuItemRepo
}
