package ledgerapi

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTotalOf(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderedItem
		want  float64
	}{
		{name: "empty", items: nil, want: 0},
		{
			name: "mixed",
			items: []OrderedItem{
				{Name: "Paneer Tikka", UnitPrice: 180, Quantity: 2},
				{Name: "Veg Pizza (Full)", UnitPrice: 180, Quantity: 1},
			},
			want: 540,
		},
		{
			name: "centsDoNotDrift",
			items: []OrderedItem{
				{Name: "Soda", UnitPrice: 0.1, Quantity: 3},
			},
			want: 0.3,
		},
		{
			name:  "pricelessLine",
			items: []OrderedItem{{Name: "Water", Quantity: 4}},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalOf(tt.items); got != tt.want {
				t.Errorf("TotalOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderMutationModes(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantReplace bool
		wantRemove  bool
	}{
		{name: "absentItems", payload: `{"mark_delivered":true}`},
		{name: "nullItems", payload: `{"items":null}`},
		{name: "emptyItemsClears", payload: `{"items":[]}`, wantReplace: true},
		{name: "removeByID", payload: `{"remove_item_ids":["a"]}`, wantRemove: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m OrderMutation
			if err := json.Unmarshal([]byte(tt.payload), &m); err != nil {
				t.Fatalf("cannot decode: %v", err)
			}
			if m.HasReplace() != tt.wantReplace {
				t.Errorf("HasReplace() = %v, want %v", m.HasReplace(), tt.wantReplace)
			}
			if m.HasRemove() != tt.wantRemove {
				t.Errorf("HasRemove() = %v, want %v", m.HasRemove(), tt.wantRemove)
			}
		})
	}
}

func TestEmptyReplaceSurvivesEncoding(t *testing.T) {
	body, err := json.Marshal(OrderMutation{Items: []OrderedItem{}})
	if err != nil {
		t.Fatalf("cannot encode: %v", err)
	}
	var back OrderMutation
	if err := json.Unmarshal(body, &back); err != nil {
		t.Fatalf("cannot decode: %v", err)
	}
	if !back.HasReplace() {
		t.Errorf("empty item list lost on the wire: %s", body)
	}
}

func TestOccasionPayload(t *testing.T) {
	tests := []struct {
		name      string
		occasion  Occasion
		charge    float64
		wantKind  OccasionKind
		wantTitle string
		wantFee   float64
	}{
		{name: "none", occasion: NoOccasion{}, charge: 500, wantKind: OccasionNone, wantFee: 0},
		{name: "birthday", occasion: Birthday{Celebrant: "Asha", Age: 21}, charge: 499, wantKind: OccasionBirthday, wantTitle: "Asha's 21st birthday", wantFee: 499},
		{name: "anniversary", occasion: Anniversary{Couple: "Ravi & Meera", Years: 12}, wantKind: OccasionAnniversary, wantTitle: "Ravi & Meera's 12th anniversary"},
		{name: "proposal", occasion: Proposal{Partner: "Sam"}, wantKind: OccasionProposal, wantTitle: "Proposal for Sam"},
		{name: "corporate", occasion: Corporate{Company: "Acme"}, wantKind: OccasionCorporate, wantTitle: "Acme event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOccasionPayload(tt.occasion, tt.charge)
			if p.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", p.Kind, tt.wantKind)
			}
			if p.DecorationCharge != tt.wantFee {
				t.Errorf("DecorationCharge = %v, want %v", p.DecorationCharge, tt.wantFee)
			}

			body, _ := json.Marshal(p)
			var back OccasionPayload
			if err := json.Unmarshal(body, &back); err != nil {
				t.Fatalf("cannot decode: %v", err)
			}
			if got := back.Occasion().Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestInconsistentOccasionPayload(t *testing.T) {
	p := OccasionPayload{Kind: OccasionBirthday}
	if _, ok := p.Occasion().(NoOccasion); !ok {
		t.Error("payload without body should unwrap to NoOccasion")
	}
}

func TestValidLedgerName(t *testing.T) {
	for name, want := range map[string]bool{
		"food":        true,
		"decorations": true,
		"":            false,
		"Food":        false,
		"a/b":         false,
	} {
		if got := ValidLedgerName(name); got != want {
			t.Errorf("ValidLedgerName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRejectedErrorUnwrap(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{code: CodeAlreadyDelivered, want: ErrAlreadyDelivered},
		{code: CodeTicketNotFound, want: ErrTicketNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			var err error = &RejectedError{Code: tt.code, Message: "nope"}
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
		})
	}

	var err error = &RejectedError{Code: CodeInternal}
	if errors.Is(err, ErrAlreadyDelivered) {
		t.Error("internal rejection should not match ErrAlreadyDelivered")
	}
}
