package lifecycle

import (
	"github.com/appetiteclub/seatside/pkg/enums/orderstatus"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/services/ordering/internal/cart"
)

// Intent is a requested order transition.
type Intent interface {
	isIntent()
}

// Place submits cart lines. Lines already on the order (same line id) have
// their quantities summed. A decoration charge is never more than 1.
type Place struct {
	Lines []cart.Line
}

type CancelAll struct{}

type CancelItem struct {
	ItemID string
}

// ChangeQuantity moves the quantity of a placed item, never below 1. A
// decoration charge stays at 1.
type ChangeQuantity struct {
	ItemID string
	Delta  int
}

type MarkReady struct{}

type MarkDelivered struct{}

func (Place) isIntent()          {}
func (CancelAll) isIntent()      {}
func (CancelItem) isIntent()     {}
func (ChangeQuantity) isIntent() {}
func (MarkReady) isIntent()      {}
func (MarkDelivered) isIntent()  {}

// Apply returns the record that results from intent. The input is not
// modified. The ordering window is not checked here.
func Apply(r Record, intent Intent) (Record, error) {
	next := r.Clone()
	st := orderstatus.Statuses

	switch in := intent.(type) {
	case Place:
		if len(in.Lines) == 0 {
			return r, ErrEmptyCart
		}
		if next.Status.IsTerminal() {
			return r, ErrAlreadyDelivered
		}
		for _, l := range in.Lines {
			if i := next.lineIndex(l.ID); i >= 0 {
				next.Items[i].Quantity = mergedQuantity(next.Items[i], l.Quantity)
				continue
			}
			item := l.Ordered()
			if item.IsDecorationCharge {
				item.Quantity = 1
			}
			next.Items = append(next.Items, item)
		}
		next.Status = st.Placed

	case CancelAll:
		if next.Status.IsTerminal() {
			return r, ErrAlreadyDelivered
		}
		if next.IsEmpty() {
			return r, ErrNothingToCancel
		}
		next.Items = []ledgerapi.OrderedItem{}
		next.Status = st.Cancelled

	case CancelItem:
		if next.Status.IsTerminal() {
			return r, ErrAlreadyDelivered
		}
		i := next.index(in.ItemID)
		if i < 0 {
			return r, ErrItemNotFound
		}
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		if next.IsEmpty() {
			next.Status = st.Draft
		}

	case ChangeQuantity:
		if next.Status.IsTerminal() {
			return r, ErrAlreadyDelivered
		}
		i := next.index(in.ItemID)
		if i < 0 {
			return r, ErrItemNotFound
		}
		next.Items[i].Quantity = mergedQuantity(next.Items[i], in.Delta)

	case MarkReady:
		if !next.Status.IsActive() || next.IsEmpty() {
			return r, ErrInvalidTransition
		}
		next.Status = st.Ready

	case MarkDelivered:
		if !(next.Status.IsActive() || next.Status == st.Ready) || next.IsEmpty() {
			return r, ErrInvalidTransition
		}
		next.Status = st.Delivered

	default:
		return r, ErrInvalidTransition
	}

	next.touch()
	return next, nil
}

func mergedQuantity(it ledgerapi.OrderedItem, delta int) int {
	if it.IsDecorationCharge {
		return 1
	}
	if q := it.Quantity + delta; q > 1 {
		return q
	}
	return 1
}

// Mutation builds the boundary payload that makes the ledger match next,
// the result of applying intent.
func Mutation(next Record, intent Intent) ledgerapi.OrderMutation {
	switch in := intent.(type) {
	case CancelAll:
		return ledgerapi.OrderMutation{Items: []ledgerapi.OrderedItem{}}
	case CancelItem:
		return ledgerapi.OrderMutation{RemoveItemIDs: []string{in.ItemID}}
	case MarkReady:
		return ledgerapi.OrderMutation{MarkReady: true}
	case MarkDelivered:
		return ledgerapi.OrderMutation{MarkDelivered: true}
	default:
		items := ledgerapi.CloneItems(next.Items)
		if items == nil {
			items = []ledgerapi.OrderedItem{}
		}
		return ledgerapi.OrderMutation{Items: items}
	}
}
