package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// IsTerminal reports whether guests can no longer change the order.
func (s Status) IsTerminal() bool {
	return s == Statuses.Ready || s == Statuses.Delivered
}

// IsActive reports whether the order has been handed to the venue and not
// yet finished or withdrawn.
func (s Status) IsActive() bool {
	return s == Statuses.Placed || s == Statuses.Received
}

type Enum struct {
	Draft     Status
	Placed    Status
	Received  Status
	Ready     Status
	Delivered Status
	Cancelled Status
}

var Statuses = Enum{
	Draft:     Status{Name: "draft"},
	Placed:    Status{Name: "placed"},
	Received:  Status{Name: "received"},
	Ready:     Status{Name: "ready"},
	Delivered: Status{Name: "delivered"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Draft,
	Statuses.Placed,
	Statuses.Received,
	Statuses.Ready,
	Statuses.Delivered,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Parse is ByName with a fallback to Draft for empty or unknown names.
func Parse(name string) Status {
	if s := ByName(strings.ToLower(strings.TrimSpace(name))); s != nil {
		return *s
	}
	return Statuses.Draft
}
