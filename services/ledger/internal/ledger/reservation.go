package ledger

import (
	"time"

	"github.com/appetiteclub/seatside/pkg/ledgerapi"
)

// Reservation is a booked ticket. The ticket id is the document id.
type Reservation struct {
	TicketID        string                 `json:"ticket_id" bson:"_id"`
	Date            string                 `json:"date" bson:"date"`
	TimeRange       string                 `json:"time_range" bson:"time_range"`
	GuestName       string                 `json:"guest_name" bson:"guest_name"`
	Venue           string                 `json:"venue,omitempty" bson:"venue,omitempty"`
	OccasionDetails map[string]interface{} `json:"occasion_details,omitempty" bson:"occasion_details,omitempty"`
	Status          string                 `json:"status" bson:"status"`
	CreatedAt       time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" bson:"updated_at"`
}

func NewReservation(ticketID string) *Reservation {
	return &Reservation{
		TicketID: ticketID,
		Status:   "confirmed",
	}
}

func (r *Reservation) BeforeCreate() {
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
}

func (r *Reservation) BeforeUpdate() {
	r.UpdatedAt = time.Now()
}

// API is the reservation as the ordering service sees it, with the occasion
// already resolved.
func (r *Reservation) API() ledgerapi.Reservation {
	return ledgerapi.Reservation{
		TicketID:  r.TicketID,
		Date:      r.Date,
		TimeRange: r.TimeRange,
		GuestName: r.GuestName,
		Venue:     r.Venue,
		Occasion:  ResolveOccasion(r.OccasionDetails),
	}
}
