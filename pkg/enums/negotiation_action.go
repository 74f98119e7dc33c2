package enums

import "fmt"

// NegotiationAction labels an entry in an offer's negotiation log. The log
// is the audit trail: ActionSent seeds it at creation, ActionModified marks
// a non-transition edit, and the rest mirror the transition that wrote them.
type NegotiationAction string

const (
	ActionSent      NegotiationAction = "sent"
	ActionCountered NegotiationAction = "countered"
	ActionAccepted  NegotiationAction = "accepted"
	ActionRejected  NegotiationAction = "rejected"
	ActionWithdrawn NegotiationAction = "withdrawn"
	ActionModified  NegotiationAction = "modified"
)

var validNegotiationActions = []NegotiationAction{
	ActionSent,
	ActionCountered,
	ActionAccepted,
	ActionRejected,
	ActionWithdrawn,
	ActionModified,
}

// String implements fmt.Stringer.
func (n NegotiationAction) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NegotiationAction.
func (n NegotiationAction) IsValid() bool {
	for _, candidate := range validNegotiationActions {
		if candidate == n {
			return true
		}
	}
	return false
}

// OfferAction is a transition requested by a caller, on either the REST
// respond endpoint or the websocket channel.
type OfferAction string

const (
	OfferActionAccept   OfferAction = "accept"
	OfferActionReject   OfferAction = "reject"
	OfferActionCounter  OfferAction = "counter"
	OfferActionWithdraw OfferAction = "withdraw"
)

var validOfferActions = []OfferAction{
	OfferActionAccept,
	OfferActionReject,
	OfferActionCounter,
	OfferActionWithdraw,
}

// String implements fmt.Stringer.
func (o OfferAction) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferAction.
func (o OfferAction) IsValid() bool {
	for _, candidate := range validOfferActions {
		if candidate == o {
			return true
		}
	}
	return false
}

// LogAction maps a requested action to the negotiation log entry it writes.
func (o OfferAction) LogAction() NegotiationAction {
	switch o {
	case OfferActionAccept:
		return ActionAccepted
	case OfferActionReject:
		return ActionRejected
	case OfferActionCounter:
		return ActionCountered
	case OfferActionWithdraw:
		return ActionWithdrawn
	default:
		return ""
	}
}

// ParseOfferAction converts raw caller input into an OfferAction.
func ParseOfferAction(value string) (OfferAction, error) {
	for _, candidate := range validOfferActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer action %q", value)
}
