package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/pkg/enums"
)

// OfferCreatedEvent signals a buyer opened a negotiation on a product.
type OfferCreatedEvent struct {
	OfferID       string          `json:"offer_id"`
	Title         string          `json:"title"`
	ProductID     uuid.UUID       `json:"product_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	OfferPrice    decimal.Decimal `json:"offer_price"`
	Quantity      int             `json:"quantity"`
	Currency      enums.Currency  `json:"currency"`
	EndDate       time.Time       `json:"end_date"`
}

// OfferRespondedEvent is emitted for every accept, reject, or counter.
type OfferRespondedEvent struct {
	OfferID    string            `json:"offer_id"`
	Title      string            `json:"title"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	SellerID   uuid.UUID         `json:"seller_id"`
	ActorID    uuid.UUID         `json:"actor_id"`
	Action     enums.OfferAction `json:"action"`
	Status     enums.OfferStatus `json:"status"`
	OfferPrice decimal.Decimal   `json:"offer_price"`
	Quantity   int               `json:"quantity"`
}

// OfferWithdrawnEvent is emitted when the buyer pulls an open offer.
type OfferWithdrawnEvent struct {
	OfferID     string    `json:"offer_id"`
	Title       string    `json:"title"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	WithdrawnAt time.Time `json:"withdrawn_at"`
}

// OfferExpiredEvent is emitted by the sweeper when an open offer lapses.
type OfferExpiredEvent struct {
	OfferID   string    `json:"offer_id"`
	Title     string    `json:"title"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	EndDate   time.Time `json:"end_date"`
	ExpiredAt time.Time `json:"expired_at"`
}

// NotificationRequestedEvent tells the delivery pipeline to alert a user.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	OfferID        string                 `json:"offer_id,omitempty"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
}
