package enums

import "fmt"

// OfferStatus tracks the lifecycle of a negotiation offer.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusSent      OfferStatus = "sent"
	OfferStatusViewed    OfferStatus = "viewed"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
	OfferStatusCancelled OfferStatus = "cancelled"
	OfferStatusCompleted OfferStatus = "completed"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusSent,
	OfferStatusViewed,
	OfferStatusCountered,
	OfferStatusAccepted,
	OfferStatusRejected,
	OfferStatusExpired,
	OfferStatusWithdrawn,
	OfferStatusCancelled,
	OfferStatusCompleted,
}

// OpenOfferStatuses are the states in which an offer still accepts
// negotiation actions.
var OpenOfferStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusSent,
	OfferStatusViewed,
	OfferStatusCountered,
}

// String implements fmt.Stringer.
func (o OfferStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferStatus.
func (o OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsOpen reports whether the offer still accepts negotiation actions.
func (o OfferStatus) IsOpen() bool {
	for _, candidate := range OpenOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status closes the negotiation for good.
func (o OfferStatus) IsTerminal() bool {
	return o.IsValid() && !o.IsOpen()
}

// ParseOfferStatus converts raw input into an OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
