package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLine     = errors.New("invalid cart line")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Line is one entry of the cart. ID is the menu item id, suffixed with the
// variant key for items offering more than one variant.
type Line struct {
	ID                 string  `json:"id"`
	MenuItemID         string  `json:"menu_item_id,omitempty"`
	Name               string  `json:"name"`
	Variant            string  `json:"variant,omitempty"`
	UnitPrice          float64 `json:"unit_price"`
	Quantity           int     `json:"quantity"`
	IsDecorationCharge bool    `json:"is_decoration_charge"`
	VegType            string  `json:"veg_type,omitempty"`
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ordered converts the line into its ledger form. The item id is assigned by
// the ledger.
func (l Line) Ordered() ledgerapi.OrderedItem {
	return ledgerapi.OrderedItem{
		LineID:             l.ID,
		MenuItemID:         l.MenuItemID,
		Name:               l.Name,
		Variant:            l.Variant,
		UnitPrice:          l.UnitPrice,
		Quantity:           l.Quantity,
		IsDecorationCharge: l.IsDecorationCharge,
		VegType:            l.VegType,
	}
}

func (l Line) validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidLine)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLine)
	}
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if l.UnitPrice < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidLine)
	}
	return nil
}

// Cart holds at most one line per id, in insertion order.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add merges line into an existing line with the same id, keeping the
// existing price and metadata, or appends it.
func (c *Cart) Add(line Line) error {
	if err := line.validate(); err != nil {
		return err
	}
	if i := c.index(line.ID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return nil
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// SetQuantity moves the quantity of id by delta, never below 1. Decoration
// charges stay at 1.
func (c *Cart) SetQuantity(id string, delta int) error {
	i := c.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	if c.Lines[i].IsDecorationCharge {
		return nil
	}
	q := c.Lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.Lines[i].Quantity = q
	return nil
}

// Remove deletes the line regardless of its quantity.
func (c *Cart) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

// Take lowers the quantity of id by n and drops the line once nothing is
// left. Unknown ids are ignored.
func (c *Cart) Take(id string, n int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if c.Lines[i].Quantity > n {
		c.Lines[i].Quantity -= n
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) Len() int { return len(c.Lines) }

func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Get returns the line with id.
func (c Cart) Get(id string) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Total is the sum of every line subtotal. Priceless lines add nothing.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// Clone returns a deep copy.
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// Ordered converts every line into its ledger form.
func (c Cart) Ordered() []ledgerapi.OrderedItem {
	items := make([]ledgerapi.OrderedItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, l.Ordered())
	}
	return items
}

func (c Cart) index(id string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return i
		}
	}
	return -1
}
