// Package ledgerapi is the wire contract between the ordering service and the
// ledger service.
package ledgerapi

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// LedgerFood is the sub-ledger holding food orders.
	LedgerFood = "food"
)

var ledgerNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// ValidLedgerName reports whether name can key a sub-ledger.
func ValidLedgerName(name string) bool {
	return ledgerNamePattern.MatchString(name)
}

// Reservation is the guest's booking as seen by the ordering surface.
type Reservation struct {
	TicketID  string          `json:"ticket_id"`
	Date      string          `json:"date"`       // YYYY-MM-DD, venue local
	TimeRange string          `json:"time_range"` // e.g. "6:00 PM - 9:00 PM"
	GuestName string          `json:"guest_name,omitempty"`
	Venue     string          `json:"venue,omitempty"`
	Occasion  OccasionPayload `json:"occasion"`
}

// OrderedItem is one persisted line of an order record.
type OrderedItem struct {
	ItemID             string  `json:"item_id,omitempty" bson:"item_id"`
	LineID             string  `json:"line_id" bson:"line_id"`
	MenuItemID         string  `json:"menu_item_id,omitempty" bson:"menu_item_id,omitempty"`
	Name               string  `json:"name" bson:"name"`
	Variant            string  `json:"variant,omitempty" bson:"variant,omitempty"`
	UnitPrice          float64 `json:"unit_price" bson:"unit_price"`
	Quantity           int     `json:"quantity" bson:"quantity"`
	IsDecorationCharge bool    `json:"is_decoration_charge" bson:"is_decoration_charge"`
	VegType            string  `json:"veg_type,omitempty" bson:"veg_type,omitempty"`
}

// OrderView is the authoritative echo of one sub-ledger.
type OrderView struct {
	Items     []OrderedItem `json:"items"`
	Status    string        `json:"status"`
	Total     float64       `json:"total"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}

// OrderMutation is one change request for a sub-ledger. A non-nil Items
// replaces the whole item list (an empty slice clears it); RemoveItemIDs
// deletes by item id. The two modes are mutually exclusive.
type OrderMutation struct {
	Items         []OrderedItem `json:"items"`
	RemoveItemIDs []string      `json:"remove_item_ids,omitempty"`
	MarkReady     bool          `json:"mark_ready,omitempty"`
	MarkDelivered bool          `json:"mark_delivered,omitempty"`
}

// HasReplace reports whether the mutation replaces the item list.
func (m OrderMutation) HasReplace() bool {
	return m.Items != nil
}

// HasRemove reports whether the mutation deletes items by id.
func (m OrderMutation) HasRemove() bool {
	return len(m.RemoveItemIDs) > 0
}

// Error codes carried in MutationResult.Code.
const (
	CodeAlreadyDelivered  = "already_delivered"
	CodeTicketNotFound    = "ticket_not_found"
	CodeConflictingModes  = "conflicting_modes"
	CodeInvalidItems      = "invalid_items"
	CodeInvalidTransition = "invalid_transition"
	CodeItemNotFound      = "item_not_found"
	CodeInternal          = "internal"
)

// MutationResult is the ledger's answer to an OrderMutation.
type MutationResult struct {
	Success bool      `json:"success"`
	Order   OrderView `json:"order"`
	Error   string    `json:"error,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// ReservationSnapshot is the ticket lookup answer: the reservation plus every
// sub-ledger already holding an order.
type ReservationSnapshot struct {
	Reservation    Reservation          `json:"reservation"`
	ExistingOrders map[string]OrderView `json:"existing_orders"`
}

// TotalOf sums unit price times quantity, rounded to cents.
func TotalOf(items []OrderedItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// CloneItems returns a deep copy that preserves nil vs empty.
func CloneItems(items []OrderedItem) []OrderedItem {
	if items == nil {
		return nil
	}
	out := make([]OrderedItem, len(items))
	copy(out, items)
	return out
}
