package ledgerapi

import "fmt"

type OccasionKind string

const (
	OccasionNone        OccasionKind = "none"
	OccasionBirthday    OccasionKind = "birthday"
	OccasionAnniversary OccasionKind = "anniversary"
	OccasionProposal    OccasionKind = "proposal"
	OccasionCorporate   OccasionKind = "corporate"
)

// Occasion is a closed set of celebration kinds attached to a reservation.
type Occasion interface {
	Kind() OccasionKind
	Title() string
	isOccasion()
}

type NoOccasion struct{}

type Birthday struct {
	Celebrant string `json:"celebrant"`
	Age       int    `json:"age,omitempty"`
}

type Anniversary struct {
	Couple string `json:"couple"`
	Years  int    `json:"years,omitempty"`
}

type Proposal struct {
	Partner string `json:"partner"`
}

type Corporate struct {
	Company string `json:"company"`
}

func (NoOccasion) Kind() OccasionKind  { return OccasionNone }
func (Birthday) Kind() OccasionKind    { return OccasionBirthday }
func (Anniversary) Kind() OccasionKind { return OccasionAnniversary }
func (Proposal) Kind() OccasionKind    { return OccasionProposal }
func (Corporate) Kind() OccasionKind   { return OccasionCorporate }

func (NoOccasion) Title() string { return "" }

func (b Birthday) Title() string {
	if b.Age > 0 {
		return fmt.Sprintf("%s's %s birthday", b.Celebrant, ordinal(b.Age))
	}
	return b.Celebrant + "'s birthday"
}

func (a Anniversary) Title() string {
	if a.Years > 0 {
		return fmt.Sprintf("%s's %s anniversary", a.Couple, ordinal(a.Years))
	}
	return a.Couple + "'s anniversary"
}

func (p Proposal) Title() string  { return "Proposal for " + p.Partner }
func (c Corporate) Title() string { return c.Company + " event" }

func (NoOccasion) isOccasion()  {}
func (Birthday) isOccasion()    {}
func (Anniversary) isOccasion() {}
func (Proposal) isOccasion()    {}
func (Corporate) isOccasion()   {}

// OccasionPayload is the wire and storage form of an Occasion. Exactly the
// field matching Kind is set.
type OccasionPayload struct {
	Kind             OccasionKind `json:"kind" bson:"kind"`
	Birthday         *Birthday    `json:"birthday,omitempty" bson:"birthday,omitempty"`
	Anniversary      *Anniversary `json:"anniversary,omitempty" bson:"anniversary,omitempty"`
	Proposal         *Proposal    `json:"proposal,omitempty" bson:"proposal,omitempty"`
	Corporate        *Corporate   `json:"corporate,omitempty" bson:"corporate,omitempty"`
	DecorationCharge float64      `json:"decoration_charge,omitempty" bson:"decoration_charge,omitempty"`
}

// NewOccasionPayload wraps o with an optional decoration charge.
func NewOccasionPayload(o Occasion, decorationCharge float64) OccasionPayload {
	p := OccasionPayload{Kind: OccasionNone, DecorationCharge: decorationCharge}
	switch v := o.(type) {
	case Birthday:
		p.Kind, p.Birthday = v.Kind(), &v
	case Anniversary:
		p.Kind, p.Anniversary = v.Kind(), &v
	case Proposal:
		p.Kind, p.Proposal = v.Kind(), &v
	case Corporate:
		p.Kind, p.Corporate = v.Kind(), &v
	default:
		p.DecorationCharge = 0
	}
	return p
}

// Occasion unwraps the payload. Inconsistent payloads yield NoOccasion.
func (p OccasionPayload) Occasion() Occasion {
	switch {
	case p.Kind == OccasionBirthday && p.Birthday != nil:
		return *p.Birthday
	case p.Kind == OccasionAnniversary && p.Anniversary != nil:
		return *p.Anniversary
	case p.Kind == OccasionProposal && p.Proposal != nil:
		return *p.Proposal
	case p.Kind == OccasionCorporate && p.Corporate != nil:
		return *p.Corporate
	default:
		return NoOccasion{}
	}
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
