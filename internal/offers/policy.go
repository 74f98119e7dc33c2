package offers

import (
	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
)

// ActorRole classifies a user relative to a specific offer.
type ActorRole string

const (
	ActorRoleBuyer    ActorRole = "buyer"
	ActorRoleSeller   ActorRole = "seller"
	ActorRoleStranger ActorRole = "stranger"
)

// RoleOf returns the actor's role on the offer.
func RoleOf(offer *models.Offer, actorID uuid.UUID) ActorRole {
	switch actorID {
	case offer.BuyerID:
		return ActorRoleBuyer
	case offer.SellerID:
		return ActorRoleSeller
	default:
		return ActorRoleStranger
	}
}

// CanRespond is the single authorization gate for caller-driven
// transitions. Every transport (REST and websocket) routes through it so
// the entry points can never drift apart; the per-action guards themselves
// live with the transition functions.
func CanRespond(offer *models.Offer, actorID uuid.UUID, action enums.OfferAction) error {
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidAction, "unknown negotiation action")
	}
	if RoleOf(offer, actorID) == ActorRoleStranger {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is not a party to this offer")
	}
	return nil
}
