package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/seatside/pkg/enums/orderstatus"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/pkg/lib/core"
)

var (
	ErrTicketNotFound    = ledgerapi.ErrTicketNotFound
	ErrAlreadyDelivered  = ledgerapi.ErrAlreadyDelivered
	ErrConflictingModes  = errors.New("items and removeItemIds cannot be combined")
	ErrInvalidItems      = errors.New("invalid order items")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrItemNotFound      = errors.New("ordered item not found")
	ErrInvalidLedger     = errors.New("invalid ledger name")
)

// Mutation actions reported in change events.
const (
	ActionReplaced    = "replaced"
	ActionCancelled   = "cancelled"
	ActionItemRemoved = "item_removed"
	ActionReady       = "ready"
	ActionDelivered   = "delivered"
)

// OrderRecord is the authoritative order of one ticket on one ledger.
type OrderRecord struct {
	ID          string                  `json:"id" bson:"_id"`
	TicketID    string                  `json:"ticket_id" bson:"ticket_id"`
	Ledger      string                  `json:"ledger" bson:"ledger"`
	Items       []ledgerapi.OrderedItem `json:"items" bson:"items"`
	Status      string                  `json:"status" bson:"status"`
	Total       float64                 `json:"total" bson:"total"`
	CreatedAt   time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at" bson:"updated_at"`
	DeliveredAt *time.Time              `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
}

func OrderRecordID(ticketID, ledger string) string {
	return ticketID + "/" + ledger
}

func NewOrderRecord(ticketID, ledger string) *OrderRecord {
	return &OrderRecord{
		ID:       OrderRecordID(ticketID, ledger),
		TicketID: ticketID,
		Ledger:   ledger,
		Items:    []ledgerapi.OrderedItem{},
		Status:   orderstatus.Statuses.Draft.Code(),
	}
}

func (o *OrderRecord) BeforeCreate() {
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *OrderRecord) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// View is the echo sent back to the ordering service.
func (o *OrderRecord) View() ledgerapi.OrderView {
	items := ledgerapi.CloneItems(o.Items)
	if items == nil {
		items = []ledgerapi.OrderedItem{}
	}
	return ledgerapi.OrderView{
		Items:     items,
		Status:    o.Status,
		Total:     o.Total,
		UpdatedAt: o.UpdatedAt,
	}
}

// Apply performs m on the record and returns the action taken. On error
// the record is left unchanged.
func (o *OrderRecord) Apply(m ledgerapi.OrderMutation) (string, error) {
	if m.HasReplace() && m.HasRemove() {
		return "", ErrConflictingModes
	}
	if (m.HasReplace() || m.HasRemove()) && (m.MarkReady || m.MarkDelivered) {
		return "", ErrConflictingModes
	}

	st := orderstatus.Statuses
	status := orderstatus.Parse(o.Status)

	var action string
	switch {
	case m.HasReplace():
		if status.IsTerminal() {
			return "", ErrAlreadyDelivered
		}
		if errs := ValidateOrderedItems(m.Items); len(errs) > 0 {
			return "", fmt.Errorf("%w: %s", ErrInvalidItems, strings.Join(errs, "; "))
		}
		o.Items = o.merge(m.Items)
		if len(o.Items) == 0 {
			o.Status, action = st.Cancelled.Code(), ActionCancelled
		} else {
			o.Status, action = st.Placed.Code(), ActionReplaced
		}

	case m.HasRemove():
		if status.IsTerminal() {
			return "", ErrAlreadyDelivered
		}
		kept, err := o.without(m.RemoveItemIDs)
		if err != nil {
			return "", err
		}
		o.Items = kept
		if len(o.Items) == 0 {
			o.Status = st.Draft.Code()
		}
		action = ActionItemRemoved

	case m.MarkReady || m.MarkDelivered:
		if len(o.Items) == 0 {
			return "", ErrInvalidTransition
		}
		if m.MarkReady {
			if !status.IsActive() {
				return "", ErrInvalidTransition
			}
			status, action = st.Ready, ActionReady
		}
		if m.MarkDelivered {
			if !status.IsActive() && status != st.Ready {
				return "", ErrInvalidTransition
			}
			now := time.Now()
			o.DeliveredAt = &now
			status, action = st.Delivered, ActionDelivered
		}
		o.Status = status.Code()

	default:
		return "", fmt.Errorf("%w: no change requested", ErrInvalidTransition)
	}

	o.Total = ledgerapi.TotalOf(o.Items)
	o.BeforeUpdate()
	return action, nil
}

// merge keeps the server id of items the record already holds and assigns
// a fresh one to everything else.
func (o *OrderRecord) merge(incoming []ledgerapi.OrderedItem) []ledgerapi.OrderedItem {
	known := make(map[string]bool, len(o.Items))
	for _, it := range o.Items {
		known[it.ItemID] = true
	}

	out := make([]ledgerapi.OrderedItem, 0, len(incoming))
	for _, it := range incoming {
		if it.ItemID == "" || !known[it.ItemID] {
			it.ItemID = core.GenerateNewID().String()
		}
		out = append(out, it)
	}
	return out
}

func (o *OrderRecord) without(ids []string) ([]ledgerapi.OrderedItem, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := o.find(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		drop[id] = true
	}

	kept := make([]ledgerapi.OrderedItem, 0, len(o.Items))
	for _, it := range o.Items {
		if !drop[it.ItemID] {
			kept = append(kept, it)
		}
	}
	return kept, nil
}

func (o *OrderRecord) find(itemID string) (ledgerapi.OrderedItem, bool) {
	for _, it := range o.Items {
		if itemID != "" && it.ItemID == itemID {
			return it, true
		}
	}
	return ledgerapi.OrderedItem{}, false
}

// codeFor maps a mutation failure onto its wire code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrTicketNotFound):
		return ledgerapi.CodeTicketNotFound
	case errors.Is(err, ErrAlreadyDelivered):
		return ledgerapi.CodeAlreadyDelivered
	case errors.Is(err, ErrConflictingModes):
		return ledgerapi.CodeConflictingModes
	case errors.Is(err, ErrInvalidItems), errors.Is(err, ErrInvalidLedger):
		return ledgerapi.CodeInvalidItems
	case errors.Is(err, ErrInvalidTransition):
		return ledgerapi.CodeInvalidTransition
	case errors.Is(err, ErrItemNotFound):
		return ledgerapi.CodeItemNotFound
	default:
		return ledgerapi.CodeInternal
	}
}
