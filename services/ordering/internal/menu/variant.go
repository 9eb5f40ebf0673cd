package menu

import (
	"errors"
	"fmt"

	"github.com/appetiteclub/seatside/services/ordering/internal/cart"
)

var ErrUnknownVariant = errors.New("unknown variant")

const (
	VariantSingle = "single"
	VariantHalf   = "half"
	VariantFull   = "full"
	VariantSmall  = "small"
	VariantMedium = "medium"
	VariantLarge  = "large"
)

// Variant is one selectable priced option of a menu item.
type Variant struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// VariantsOf lists the options of item that have a positive price.
func VariantsOf(item MenuItem) []Variant {
	p := item.Pricing
	var out []Variant
	add := func(key, label string, v *float64) {
		if v != nil && *v > 0 {
			out = append(out, Variant{Key: key, Label: label, Price: *v})
		}
	}

	switch p.Mode {
	case PricingHalfFull:
		add(VariantHalf, "Half", p.Half)
		add(VariantFull, "Full", p.Full)
	case PricingThreeSize:
		add(VariantSmall, "Small", p.Small)
		add(VariantMedium, "Medium", p.Medium)
		add(VariantLarge, "Large", p.Large)
	default:
		add(VariantSingle, "Regular", p.Price)
	}
	return out
}

// Resolve turns a chosen variant into a cart line. Quantities below 1 become 1.
// An empty key picks the only variant of single-variant items. Items with no
// valid variant are added as a plain line at their raw price.
func Resolve(item MenuItem, key string, quantity int) (cart.Line, error) {
	if quantity < 1 {
		quantity = 1
	}

	line := cart.Line{
		ID:         item.ID,
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   quantity,
		VegType:    item.VegType,
	}

	variants := VariantsOf(item)
	if len(variants) == 0 {
		line.UnitPrice = item.RawPrice()
		if line.UnitPrice < 0 {
			line.UnitPrice = 0
		}
		return line, nil
	}

	if key == "" && len(variants) == 1 {
		key = variants[0].Key
	}

	var chosen *Variant
	for i := range variants {
		if variants[i].Key == key {
			chosen = &variants[i]
			break
		}
	}
	if chosen == nil {
		return cart.Line{}, fmt.Errorf("%w %q for %s", ErrUnknownVariant, key, item.ID)
	}

	line.UnitPrice = chosen.Price
	if chosen.Key != VariantSingle {
		line.Variant = chosen.Key
		line.Name = fmt.Sprintf("%s (%s)", item.Name, chosen.Label)
	}
	if len(variants) > 1 {
		line.ID = item.ID + "-" + chosen.Key
	}
	return line, nil
}
