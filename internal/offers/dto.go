package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/types"
)

// ListDirection selects which side of the caller's offers a list returns.
type ListDirection string

const (
	// DirectionSent lists offers the caller opened as a buyer.
	DirectionSent ListDirection = "sent"
	// DirectionReceived lists offers made against the caller's listings.
	DirectionReceived ListDirection = "received"
)

// CreateInput carries a buyer's opening offer.
type CreateInput struct {
	BuyerID           uuid.UUID
	SellerID          uuid.UUID
	Title             string
	Description       string
	Product           types.ProductSnapshot
	OriginalPrice     decimal.Decimal
	OfferPrice        decimal.Decimal
	Currency          enums.Currency
	QuantityRequested int
	QuantityUnit      enums.QuantityUnit
	EndDate           *time.Time
	Message           string
}

// RespondInput carries an accept, reject or counter against an open offer.
type RespondInput struct {
	OfferID string
	ActorID uuid.UUID
	Action  enums.OfferAction
	Changes types.NegotiationChanges
	Message string
}

// WithdrawInput carries a buyer's retraction of their own offer.
type WithdrawInput struct {
	OfferID string
	ActorID uuid.UUID
	Reason  string
}

// ListFilters describe the inputs supported by the offers list.
type ListFilters struct {
	Direction ListDirection
	Status    *enums.OfferStatus
}

// OfferList wraps a page of offers plus the next page cursor.
type OfferList struct {
	Offers     []models.Offer `json:"offers"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AnalyticsSummary aggregates a user's negotiation activity over a window.
type AnalyticsSummary struct {
	WindowDays           int     `json:"window_days"`
	SentTotal            int64   `json:"sent_total"`
	ReceivedTotal        int64   `json:"received_total"`
	SentAccepted         int64   `json:"sent_accepted"`
	ReceivedAccepted     int64   `json:"received_accepted"`
	SentResponseRate     float64 `json:"sent_response_rate"`
	ReceivedResponseRate float64 `json:"received_response_rate"`
}
