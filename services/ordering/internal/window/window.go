package window

import (
	"fmt"
	"time"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

const (
	// DefaultLead is how long before the show ordering opens.
	DefaultLead = 15 * time.Minute

	dateLayout = "2006-01-02"
)

// BookingWindow is the active span of a reservation. End is always after Start.
type BookingWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ToBookingWindow anchors the time range text to date in loc. An end that is
// not after the start belongs to the next day.
func ToBookingWindow(date, timeRange string, loc *time.Location) (*BookingWindow, bool) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, false
	}
	tr, ok := ParseTimeRange(timeRange)
	if !ok {
		return nil, false
	}

	y, mo, d := day.Date()
	start := time.Date(y, mo, d, tr.Start.Hour24(), tr.Start.Minute, 0, 0, loc)
	end := time.Date(y, mo, d, tr.End.Hour24(), tr.End.Minute, 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return &BookingWindow{Start: start, End: end}, true
}

type Kind int

const (
	Allowed Kind = iota
	TooEarly
	TooLate
)

// MarshalText renders the verdict as its snake_case name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k Kind) String() string {
	switch k {
	case TooEarly:
		return "too_early"
	case TooLate:
		return "too_late"
	default:
		return "allowed"
	}
}

// Status is the ordering verdict for one instant. Window and AccessOpensAt
// are nil only for an Allowed status whose reservation had no parseable time
// range.
type Status struct {
	Kind          Kind           `json:"kind"`
	Window        *BookingWindow `json:"window,omitempty"`
	AccessOpensAt *time.Time     `json:"access_opens_at,omitempty"`
}

func (s Status) Allowed() bool { return s.Kind == Allowed }

// Err returns a *Error for closed windows and nil when ordering is allowed.
func (s Status) Err() error {
	switch s.Kind {
	case TooEarly:
		return &Error{Kind: TooEarly, At: *s.AccessOpensAt}
	case TooLate:
		return &Error{Kind: TooLate, At: s.Window.End}
	default:
		return nil
	}
}

// Error reports a closed ordering window. At is when it opens (TooEarly) or
// when it closed (TooLate).
type Error struct {
	Kind Kind
	At   time.Time
}

func (e *Error) Error() string {
	if e.Kind == TooEarly {
		return fmt.Sprintf("ordering opens at %s", e.At.Format(time.Kitchen))
	}
	return fmt.Sprintf("ordering closed at %s", e.At.Format(time.Kitchen))
}

// Calculator classifies instants against booking windows.
type Calculator struct {
	Lead     time.Duration
	Location *time.Location
	Now      func() time.Time
}

func NewCalculator(lead time.Duration, loc *time.Location) *Calculator {
	if lead < 0 {
		lead = DefaultLead
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{Lead: lead, Location: loc, Now: time.Now}
}

// Classify is allowed iff start-lead <= now <= end. A nil window is allowed.
func (c *Calculator) Classify(w *BookingWindow, now time.Time) Status {
	if w == nil {
		return Status{Kind: Allowed}
	}
	opensAt := w.Start.Add(-c.Lead)
	st := Status{Kind: Allowed, Window: w, AccessOpensAt: &opensAt}
	switch {
	case now.Before(opensAt):
		st.Kind = TooEarly
	case now.After(w.End):
		st.Kind = TooLate
	}
	return st
}

// Check derives the window of r and classifies the current instant.
func (c *Calculator) Check(r ledgerapi.Reservation) Status {
	w, ok := ToBookingWindow(r.Date, r.TimeRange, c.Location)
	if !ok {
		w = nil
	}
	return c.Classify(w, c.now())
}

func (c *Calculator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
