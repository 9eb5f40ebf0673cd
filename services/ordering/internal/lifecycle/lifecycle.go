package lifecycle

import (
	"errors"
	"time"

	"github.com/appetiteclub/seatside/pkg/enums/orderstatus"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAlreadyDelivered  = ledgerapi.ErrAlreadyDelivered
	ErrNothingToCancel   = errors.New("there is no order to cancel")
	ErrItemNotFound      = errors.New("ordered item not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Record is the client mirror of one sub-ledger.
type Record struct {
	Ledger    string                  `json:"ledger"`
	Items     []ledgerapi.OrderedItem `json:"items"`
	Status    orderstatus.Status      `json:"-"`
	Total     float64                 `json:"total"`
	UpdatedAt time.Time               `json:"updated_at,omitempty"`
}

// NewRecord returns an empty draft for ledger.
func NewRecord(ledger string) Record {
	return Record{Ledger: ledger, Status: orderstatus.Statuses.Draft}
}

// FromView mirrors an authoritative ledger echo.
func FromView(ledger string, v ledgerapi.OrderView) Record {
	return Record{
		Ledger:    ledger,
		Items:     ledgerapi.CloneItems(v.Items),
		Status:    orderstatus.Parse(v.Status),
		Total:     v.Total,
		UpdatedAt: v.UpdatedAt,
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	r.Items = ledgerapi.CloneItems(r.Items)
	return r
}

func (r Record) IsEmpty() bool { return len(r.Items) == 0 }

// Find returns the ordered item with itemID.
func (r Record) Find(itemID string) (ledgerapi.OrderedItem, bool) {
	if i := r.index(itemID); i >= 0 {
		return r.Items[i], true
	}
	return ledgerapi.OrderedItem{}, false
}

// HasLine reports whether an item with lineID is on the order.
func (r Record) HasLine(lineID string) bool { return r.lineIndex(lineID) >= 0 }

func (r Record) index(itemID string) int {
	if itemID == "" {
		return -1
	}
	for i := range r.Items {
		if r.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (r Record) lineIndex(lineID string) int {
	for i := range r.Items {
		if r.Items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func (r *Record) touch() {
	r.Total = ledgerapi.TotalOf(r.Items)
}
