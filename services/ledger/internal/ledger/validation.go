package ledger

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

// ValidateOrderedItems reports every invalid line of items.
func ValidateOrderedItems(items []ledgerapi.OrderedItem) []string {
	var errs []string
	seen := make(map[string]bool, len(items))

	for i, it := range items {
		label := it.LineID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if strings.TrimSpace(it.Name) == "" {
			errs = append(errs, fmt.Sprintf("item %s: name is required", label))
		}
		if it.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("item %s: quantity must be greater than zero", label))
		}
		if it.IsDecorationCharge && it.Quantity > 1 {
			errs = append(errs, fmt.Sprintf("item %s: decoration can only be ordered once", label))
		}
		if it.UnitPrice < 0 {
			errs = append(errs, fmt.Sprintf("item %s: price cannot be negative", label))
		}
		if it.LineID != "" {
			if seen[it.LineID] {
				errs = append(errs, fmt.Sprintf("item %s: duplicated line", label))
			}
			seen[it.LineID] = true
		}
	}

	return errs
}

func ValidateReservation(r *Reservation) []string {
	var errs []string
	if r == nil {
		return []string{"reservation is required"}
	}
	if strings.TrimSpace(r.TicketID) == "" {
		errs = append(errs, "ticket id is required")
	}
	if strings.TrimSpace(r.Date) == "" {
		errs = append(errs, "date is required")
	}
	if strings.TrimSpace(r.TimeRange) == "" {
		errs = append(errs, "time range is required")
	}
	return errs
}
