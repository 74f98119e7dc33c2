package offers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/types"
)

// offerIDAlphabet excludes lookalike characters so offer ids stay readable
// in notifications and support tickets.
const offerIDAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const offerIDSuffixLen = 9

// NewOfferID produces a public offer identifier of the form
// OFF-<unix-ms>-<9 random chars>. It is distinct from the row UUID and is
// what buyers and sellers see.
func NewOfferID(now time.Time) string {
	suffix := make([]byte, offerIDSuffixLen)
	size := big.NewInt(int64(len(offerIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived index rather than panicking.
			suffix[i] = offerIDAlphabet[int(now.UnixNano()+int64(i))%len(offerIDAlphabet)]
			continue
		}
		suffix[i] = offerIDAlphabet[n.Int64()]
	}
	return fmt.Sprintf("OFF-%d-%s", now.UnixMilli(), string(suffix))
}

// Discount holds the derived discount fields for an offer. Amount is the
// absolute reduction from the original price and Percent is the rounded
// percentage of that reduction.
type Discount struct {
	Amount  decimal.Decimal
	Percent int
}

// ComputeDiscount derives the discount from the original and offered price.
// A zero original price yields a zero discount so free or placeholder
// listings never produce a divide-by-zero or a nonsense percentage.
func ComputeDiscount(original, offered decimal.Decimal) Discount {
	if original.IsZero() {
		return Discount{Amount: decimal.Zero, Percent: 0}
	}
	amount := original.Sub(offered)
	percent := amount.Div(original).Mul(decimal.NewFromInt(100)).Round(0)
	return Discount{Amount: amount, Percent: int(percent.IntPart())}
}

// requireOpen is the uniform guard shared by every caller transition:
// a terminal status rejects with no mutation.
func requireOpen(offer *models.Offer) error {
	if !offer.Status.IsOpen() {
		return pkgerrors.New(pkgerrors.CodeOfferClosed, "offer is no longer open for negotiation")
	}
	return nil
}

func validateChanges(changes types.NegotiationChanges) error {
	if changes.Price != nil && changes.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if changes.Quantity != nil && *changes.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func otherParty(offer *models.Offer, actorID uuid.UUID) uuid.UUID {
	if actorID == offer.BuyerID {
		return offer.SellerID
	}
	return offer.BuyerID
}

func appendEntry(offer *models.Offer, actorID uuid.UUID, action enums.NegotiationAction, changes *types.NegotiationChanges, message string, now time.Time) {
	offer.Negotiations = append(offer.Negotiations, types.NegotiationEntry{
		FromUser:  actorID,
		ToUser:    otherParty(offer, actorID),
		Action:    action,
		Changes:   changes,
		Message:   message,
		Timestamp: now,
	})
}

// Accept moves an open offer to accepted on behalf of either party.
func Accept(offer *models.Offer, actorID uuid.UUID, message string, now time.Time) error {
	if err := requireOpen(offer); err != nil {
		return err
	}
	offer.Status = enums.OfferStatusAccepted
	appendEntry(offer, actorID, enums.ActionAccepted, nil, message, now)
	return nil
}

// Reject moves an open offer to rejected on behalf of either party.
func Reject(offer *models.Offer, actorID uuid.UUID, message string, now time.Time) error {
	if err := requireOpen(offer); err != nil {
		return err
	}
	offer.Status = enums.OfferStatusRejected
	appendEntry(offer, actorID, enums.ActionRejected, nil, message, now)
	return nil
}

// Counter applies a counter proposal: only present fields of changes touch
// the offer, the discount is recomputed on a price change, and the seller's
// quota is decremented. The buyer may not open the countering and nobody
// may counter twice in a row.
func Counter(offer *models.Offer, actorID uuid.UUID, changes types.NegotiationChanges, message string, now time.Time) error {
	if err := requireOpen(offer); err != nil {
		return err
	}
	if err := validateChanges(changes); err != nil {
		return err
	}

	initial := offer.Status == enums.OfferStatusPending || offer.Status == enums.OfferStatusSent
	if initial && actorID == offer.BuyerID {
		return pkgerrors.New(pkgerrors.CodeInitialCounterSellerOnly, "the seller must counter before the buyer can")
	}
	if last, ok := offer.Negotiations.Last(); ok && last.Action == enums.ActionCountered && last.FromUser == actorID {
		return pkgerrors.New(pkgerrors.CodeWaitForCounterResponse, "awaiting a response to your counter offer")
	}
	if actorID == offer.SellerID {
		if offer.RemainingVendorCounters() <= 0 {
			return pkgerrors.New(pkgerrors.CodeVendorCounterLimitReached, "Accept or reject the latest buyer offer.")
		}
		offer.VendorCounterCount++
	}

	if changes.Price != nil {
		offer.OfferPrice = *changes.Price
		discount := ComputeDiscount(offer.OriginalPrice, offer.OfferPrice)
		offer.DiscountAmount = discount.Amount
		offer.DiscountPercent = discount.Percent
	}
	if changes.Quantity != nil {
		offer.QuantityRequested = *changes.Quantity
	}
	if changes.Description != nil {
		offer.Description = *changes.Description
	}

	offer.Status = enums.OfferStatusCountered
	appendEntry(offer, actorID, enums.ActionCountered, &changes, message, now)
	return nil
}

// Withdraw retracts the offer. Only the buyer may withdraw, and only while
// the offer is still open; withdrawing an accepted or completed deal gets
// its own error so clients can message it distinctly.
func Withdraw(offer *models.Offer, actorID uuid.UUID, reason string, now time.Time) error {
	if actorID != offer.BuyerID {
		return pkgerrors.New(pkgerrors.CodeUnauthorizedWithdraw, "only the buyer may withdraw an offer")
	}
	if offer.Status == enums.OfferStatusAccepted || offer.Status == enums.OfferStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeCannotWithdrawClosed, "completed offers cannot be withdrawn")
	}
	if err := requireOpen(offer); err != nil {
		return err
	}
	offer.Status = enums.OfferStatusWithdrawn
	appendEntry(offer, actorID, enums.ActionWithdrawn, nil, reason, now)
	return nil
}

// Expire marks the offer expired. The sweeper calls this once the validity
// window has passed; it records no log entry because no party acted.
func Expire(offer *models.Offer) {
	offer.Status = enums.OfferStatusExpired
}

// ReplayStatus folds a negotiation log into the status projection it
// implies. The stored status column must match the replay after every
// party-driven transition; system states (sent, viewed, expired) layer on
// top without log entries.
func ReplayStatus(log types.NegotiationLog) enums.OfferStatus {
	status := enums.OfferStatusPending
	for _, entry := range log {
		switch entry.Action {
		case enums.ActionCountered:
			status = enums.OfferStatusCountered
		case enums.ActionAccepted:
			status = enums.OfferStatusAccepted
		case enums.ActionRejected:
			status = enums.OfferStatusRejected
		case enums.ActionWithdrawn:
			status = enums.OfferStatusWithdrawn
		}
	}
	return status
}
