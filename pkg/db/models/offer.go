package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/types"
)

// Offer is a buyer-initiated price negotiation against a product listing.
// Status is a cached projection of the negotiation log; every transition
// appends a log entry and bumps Version in the same conditional UPDATE.
type Offer struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID            string                `gorm:"column:offer_id;type:text;not null;uniqueIndex"`
	Title              string                `gorm:"column:title;not null"`
	Description        string                `gorm:"column:description;not null"`
	BuyerID            uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID           uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	Product            types.ProductSnapshot `gorm:"column:product;type:jsonb;not null"`
	OriginalPrice      decimal.Decimal       `gorm:"column:original_price;type:numeric(14,2);not null"`
	OfferPrice         decimal.Decimal       `gorm:"column:offer_price;type:numeric(14,2);not null"`
	Currency           enums.Currency        `gorm:"column:currency;type:text;not null;default:'INR'"`
	DiscountAmount     decimal.Decimal       `gorm:"column:discount_amount;type:numeric(14,2);not null"`
	DiscountPercent    int                   `gorm:"column:discount_percent;not null"`
	QuantityRequested  int                   `gorm:"column:quantity_requested;not null"`
	QuantityUnit       enums.QuantityUnit    `gorm:"column:quantity_unit;type:text;not null;default:'pieces'"`
	Status             enums.OfferStatus     `gorm:"column:status;type:offer_status;not null;default:'pending';index"`
	MaxVendorCounters  int                   `gorm:"column:max_vendor_counters;not null;default:2"`
	VendorCounterCount int                   `gorm:"column:vendor_counter_count;not null;default:0"`
	StartDate          time.Time             `gorm:"column:start_date;type:timestamptz;not null"`
	EndDate            time.Time             `gorm:"column:end_date;type:timestamptz;not null"`
	Negotiations       types.NegotiationLog  `gorm:"column:negotiations;type:jsonb;not null"`
	IsDeleted          bool                  `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt          *time.Time            `gorm:"column:deleted_at"`
	DeletedBy          *uuid.UUID            `gorm:"column:deleted_by;type:uuid"`
	Version            int                   `gorm:"column:version;not null;default:0"`
	ConversationID     *uuid.UUID            `gorm:"column:conversation_id;type:uuid"`
	LastMessageAt      *time.Time            `gorm:"column:last_message_at"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingVendorCounters returns how many counters the seller has left,
// never negative.
func (o *Offer) RemainingVendorCounters() int {
	remaining := o.MaxVendorCounters - o.VendorCounterCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the validity window has passed, regardless of
// the stored status.
func (o *Offer) IsExpired(now time.Time) bool {
	return now.After(o.EndDate)
}
