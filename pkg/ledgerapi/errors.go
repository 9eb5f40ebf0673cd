package ledgerapi

import "errors"

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrAlreadyDelivered = errors.New("order already delivered")
)

// RejectedError is a structurally valid answer from the ledger that refused
// the mutation.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "mutation rejected"
	}
	return "mutation rejected: " + e.Message
}

// Unwrap exposes the sentinel matching Code, if any.
func (e *RejectedError) Unwrap() error {
	switch e.Code {
	case CodeAlreadyDelivered:
		return ErrAlreadyDelivered
	case CodeTicketNotFound:
		return ErrTicketNotFound
	default:
		return nil
	}
}
