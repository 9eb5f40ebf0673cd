package menu

const (
	VegTypeVeg    = "veg"
	VegTypeNonVeg = "non-veg"
)

// PricingMode tells which price fields of a Pricing are meaningful.
type PricingMode int

const (
	PricingSingle PricingMode = iota
	PricingHalfFull
	PricingThreeSize
)

func (m PricingMode) String() string {
	switch m {
	case PricingHalfFull:
		return "half_full"
	case PricingThreeSize:
		return "three_size"
	default:
		return "single"
	}
}

// Pricing holds the prices of one menu item. Nil means the option is absent.
type Pricing struct {
	Mode   PricingMode `json:"mode"`
	Price  *float64    `json:"price,omitempty"`
	Half   *float64    `json:"half,omitempty"`
	Full   *float64    `json:"full,omitempty"`
	Small  *float64    `json:"small,omitempty"`
	Medium *float64    `json:"medium,omitempty"`
	Large  *float64    `json:"large,omitempty"`
}

// MenuItem is the normalized shape of one orderable dish.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category,omitempty"`
	VegType     string  `json:"veg_type"`
	Pricing     Pricing `json:"pricing"`
}

// RawPrice is the single price, or zero when absent. Used when an item has
// no valid variant at all.
func (m MenuItem) RawPrice() float64 {
	if m.Pricing.Price == nil {
		return 0
	}
	return *m.Pricing.Price
}

func price(v float64) *float64 {
	return &v
}
