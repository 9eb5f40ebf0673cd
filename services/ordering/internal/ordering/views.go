package ordering

import (
	"time"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/services/ordering/internal/cart"
	"github.com/appetiteclub/seatside/services/ordering/internal/lifecycle"
	"github.com/appetiteclub/seatside/services/ordering/internal/menu"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
)

type WindowView struct {
	Status        string     `json:"status"`
	Allowed       bool       `json:"allowed"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	AccessOpensAt *time.Time `json:"access_opens_at,omitempty"`
	Message       string     `json:"message,omitempty"`
}

func NewWindowView(s window.Status) WindowView {
	v := WindowView{Status: s.Kind.String(), Allowed: s.Allowed()}
	if s.Window != nil {
		start, end := s.Window.Start, s.Window.End
		v.Start, v.End = &start, &end
	}
	v.AccessOpensAt = s.AccessOpensAt
	if err := s.Err(); err != nil {
		v.Message = err.Error()
	}
	return v
}

type OccasionView struct {
	Kind             string  `json:"kind"`
	Title            string  `json:"title,omitempty"`
	DecorationCharge float64 `json:"decoration_charge,omitempty"`
}

type TicketView struct {
	TicketID  string               `json:"ticket_id"`
	GuestName string               `json:"guest_name,omitempty"`
	Venue     string               `json:"venue,omitempty"`
	Date      string               `json:"date"`
	TimeRange string               `json:"time_range"`
	Occasion  OccasionView         `json:"occasion"`
	Window    WindowView           `json:"window"`
	Orders    map[string]OrderView `json:"orders"`
}

func NewTicketView(r ledgerapi.Reservation, w window.Status, orders map[string]lifecycle.Record) TicketView {
	occ := r.Occasion.Occasion()
	v := TicketView{
		TicketID:  r.TicketID,
		GuestName: r.GuestName,
		Venue:     r.Venue,
		Date:      r.Date,
		TimeRange: r.TimeRange,
		Occasion: OccasionView{
			Kind:             string(occ.Kind()),
			Title:            occ.Title(),
			DecorationCharge: r.Occasion.DecorationCharge,
		},
		Window: NewWindowView(w),
		Orders: make(map[string]OrderView, len(orders)),
	}
	for ledger, rec := range orders {
		v.Orders[ledger] = NewOrderView(rec)
	}
	return v
}

type MenuItemView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	VegType     string         `json:"veg_type"`
	Variants    []menu.Variant `json:"variants"`
}

type MenuGroupView struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Items []MenuItemView `json:"items"`
}

type MenuView struct {
	Source string          `json:"source"`
	Groups []MenuGroupView `json:"groups"`
}

func NewMenuView(src menu.Source) MenuView {
	v := MenuView{Source: src.Kind.String(), Groups: []MenuGroupView{}}
	for _, g := range src.Groups() {
		gv := MenuGroupView{Key: g.Key, Label: g.Label, Items: make([]MenuItemView, 0, len(g.Items))}
		for _, it := range g.Items {
			variants := menu.VariantsOf(it)
			if variants == nil {
				variants = []menu.Variant{}
			}
			gv.Items = append(gv.Items, MenuItemView{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				ImageURL:    it.ImageURL,
				VegType:     it.VegType,
				Variants:    variants,
			})
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}

type CartView struct {
	Lines []cart.Line `json:"lines"`
	Count int         `json:"count"`
	Total float64     `json:"total"`
}

func NewCartView(c cart.Cart) CartView {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return CartView{Lines: lines, Count: count, Total: c.Total().Round(2).InexactFloat64()}
}

type OrderView struct {
	Ledger      string                  `json:"ledger"`
	Status      string                  `json:"status"`
	StatusLabel string                  `json:"status_label"`
	Items       []ledgerapi.OrderedItem `json:"items"`
	Total       float64                 `json:"total"`
	UpdatedAt   *time.Time              `json:"updated_at,omitempty"`
}

func NewOrderView(r lifecycle.Record) OrderView {
	items := r.Items
	if items == nil {
		items = []ledgerapi.OrderedItem{}
	}
	v := OrderView{
		Ledger:      r.Ledger,
		Status:      r.Status.Code(),
		StatusLabel: r.Status.Label(),
		Items:       items,
		Total:       r.Total,
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}
