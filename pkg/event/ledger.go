package event

import "time"

const (
	// LedgerOrdersTopic carries every authoritative change of an order record.
	LedgerOrdersTopic = "ledgers.orders"

	EventOrderChanged = "ledger.order.changed"
)

// OrderChangedEvent tells mirrors that the record for (TicketID, Ledger) moved.
// It carries no items; consumers perform a fresh read.
type OrderChangedEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TicketID   string    `json:"ticket_id"`
	Ledger     string    `json:"ledger"`
	Status     string    `json:"status"`
	ItemCount  int       `json:"item_count"`
	Total      float64   `json:"total"`
	Action     string    `json:"action"`
}
