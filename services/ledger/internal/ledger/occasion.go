package ledger

import (
	"strconv"
	"strings"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

var (
	occasionKindKeys = []string{"type", "kind", "occasion"}
	chargeKeys       = []string{"decorationCharge", "decoration_charge", "decorationPrice", "decoration_price"}
)

// ResolveOccasion turns the free-form details stored with a reservation into
// a typed occasion. Unknown kinds resolve to no occasion.
func ResolveOccasion(details map[string]interface{}) ledgerapi.OccasionPayload {
	if len(details) == 0 {
		return ledgerapi.NewOccasionPayload(ledgerapi.NoOccasion{}, 0)
	}

	kind := strings.ToLower(strings.TrimSpace(str(details, occasionKindKeys...)))
	charge, _ := num(details, chargeKeys...)
	if charge < 0 {
		charge = 0
	}

	var occ ledgerapi.Occasion = ledgerapi.NoOccasion{}
	switch ledgerapi.OccasionKind(kind) {
	case ledgerapi.OccasionBirthday:
		age, _ := num(details, "age")
		occ = ledgerapi.Birthday{
			Celebrant: str(details, "celebrant", "name", "for"),
			Age:       int(age),
		}
	case ledgerapi.OccasionAnniversary:
		years, _ := num(details, "years", "year")
		occ = ledgerapi.Anniversary{
			Couple: str(details, "couple", "names", "name"),
			Years:  int(years),
		}
	case ledgerapi.OccasionProposal:
		occ = ledgerapi.Proposal{Partner: str(details, "partner", "name")}
	case ledgerapi.OccasionCorporate:
		occ = ledgerapi.Corporate{Company: str(details, "company", "organization", "name")}
	}

	return ledgerapi.NewOccasionPayload(occ, charge)
}

func str(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func num(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int32:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
