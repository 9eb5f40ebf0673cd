package menu

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var (
	idKeys       = []string{"id", "_id", "itemId", "item_id"}
	nameKeys     = []string{"name", "title", "itemName", "item_name"}
	descKeys     = []string{"description", "desc", "details"}
	imageKeys    = []string{"image", "imageUrl", "image_url", "photoUrl", "photo_url"}
	categoryKeys = []string{"category", "categoryName", "category_name"}
	vegKeys      = []string{"vegType", "veg_type", "foodType", "food_type"}
	availKeys    = []string{"available", "isAvailable", "is_available"}
	pricesKeys   = []string{"prices", "pricing"}
)

// Normalize maps raw feed records onto MenuItem. Records without a name or
// explicitly marked unavailable are skipped; missing ids become "food-<index>"
// where index is the record's position in raw.
func Normalize(raw []map[string]interface{}) []MenuItem {
	items := make([]MenuItem, 0, len(raw))
	for i, rec := range raw {
		if rec == nil {
			continue
		}
		item, ok := normalizeOne(i, rec)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func normalizeOne(index int, rec map[string]interface{}) (MenuItem, bool) {
	if avail, ok := lookupBool(rec, availKeys...); ok && !avail {
		return MenuItem{}, false
	}

	name := strings.TrimSpace(lookupString(rec, nameKeys...))
	if name == "" {
		return MenuItem{}, false
	}

	id := strings.TrimSpace(lookupString(rec, idKeys...))
	if id == "" {
		id = fmt.Sprintf("food-%d", index)
	}

	return MenuItem{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(lookupString(rec, descKeys...)),
		ImageURL:    strings.TrimSpace(lookupString(rec, imageKeys...)),
		Category:    lookupString(rec, categoryKeys...),
		VegType:     normalizeVegType(lookupString(rec, vegKeys...)),
		Pricing:     normalizePricing(rec),
	}, true
}

func normalizeVegType(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), VegTypeNonVeg) {
		return VegTypeNonVeg
	}
	return VegTypeVeg
}

// normalizePricing reads flat keys (halfPrice, smallPrice, ...) and a nested
// prices object. Half/full wins over sizes; sizes win over a single price.
func normalizePricing(rec map[string]interface{}) Pricing {
	nested := map[string]interface{}{}
	for _, k := range pricesKeys {
		if m, ok := rec[k].(map[string]interface{}); ok {
			nested = m
			break
		}
	}

	pick := func(flat []string, nestedKey string) *float64 {
		if v, ok := lookupNumber(rec, flat...); ok {
			return price(v)
		}
		if v, ok := lookupNumber(nested, nestedKey); ok {
			return price(v)
		}
		return nil
	}

	half := pick([]string{"halfPrice", "half_price"}, "half")
	full := pick([]string{"fullPrice", "full_price"}, "full")
	if half != nil || full != nil {
		return Pricing{Mode: PricingHalfFull, Half: half, Full: full}
	}

	small := pick([]string{"smallPrice", "small_price"}, "small")
	medium := pick([]string{"mediumPrice", "medium_price"}, "medium")
	large := pick([]string{"largePrice", "large_price"}, "large")
	if small != nil || medium != nil || large != nil {
		return Pricing{Mode: PricingThreeSize, Small: small, Medium: medium, Large: large}
	}

	var single *float64
	if v, ok := lookupNumber(rec, "price"); ok {
		single = price(v)
	} else if v, ok := lookupNumber(nested, "single", "price"); ok {
		single = price(v)
	}
	return Pricing{Mode: PricingSingle, Price: single}
}

func lookupString(rec map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func lookupNumber(rec map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int32:
			return float64(v), true
		case int64:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func lookupBool(rec map[string]interface{}, keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}
