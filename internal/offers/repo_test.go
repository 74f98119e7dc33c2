package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

func setupOffersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	offers := `
CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  offer_id TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  product TEXT NOT NULL DEFAULT '{}',
  original_price TEXT NOT NULL,
  offer_price TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  discount_amount TEXT NOT NULL DEFAULT '0',
  discount_percent INTEGER NOT NULL DEFAULT 0,
  quantity_requested INTEGER NOT NULL,
  quantity_unit TEXT NOT NULL DEFAULT 'pieces',
  status TEXT NOT NULL DEFAULT 'pending',
  max_vendor_counters INTEGER NOT NULL DEFAULT 2,
  vendor_counter_count INTEGER NOT NULL DEFAULT 0,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  negotiations TEXT NOT NULL DEFAULT '[]',
  is_deleted INTEGER NOT NULL DEFAULT 0,
  deleted_at DATETIME,
  deleted_by TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  conversation_id TEXT,
  last_message_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(offers).Error)
	return db
}

func insertOffer(t *testing.T, repo Repository, buyerID, sellerID uuid.UUID, status enums.OfferStatus, createdAt time.Time) *models.Offer {
	t.Helper()

	offer := &models.Offer{
		ID:                uuid.New(),
		OfferID:           NewOfferID(createdAt),
		Title:             "Bulk cotton fabric",
		Description:       "500 GSM cotton",
		BuyerID:           buyerID,
		SellerID:          sellerID,
		OriginalPrice:     decimal.NewFromInt(5000),
		OfferPrice:        decimal.NewFromInt(4000),
		Currency:          enums.CurrencyINR,
		DiscountAmount:    decimal.NewFromInt(1000),
		DiscountPercent:   20,
		QuantityRequested: 10,
		QuantityUnit:      enums.QuantityUnitPieces,
		Status:            status,
		MaxVendorCounters: 2,
		StartDate:         createdAt,
		EndDate:           createdAt.Add(72 * time.Hour),
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	created, err := repo.CreateOffer(context.Background(), offer)
	require.NoError(t, err)
	return created
}

func TestRepositoryFindByOfferID(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	buyer := uuid.New()
	seller := uuid.New()

	offer := insertOffer(t, repo, buyer, seller, enums.OfferStatusPending, time.Now().UTC())

	found, err := repo.FindByOfferID(context.Background(), offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, found.ID)
	assert.Equal(t, enums.OfferStatusPending, found.Status)

	_, err = repo.FindByOfferID(context.Background(), "OFF-0-NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, db.Exec("UPDATE offers SET is_deleted = 1 WHERE id = ?", offer.ID).Error)
	_, err = repo.FindByOfferID(context.Background(), offer.OfferID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateVersioned(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	offer := insertOffer(t, repo, uuid.New(), uuid.New(), enums.OfferStatusPending, time.Now().UTC())

	updated, err := repo.UpdateVersioned(context.Background(), offer.ID, 0, map[string]any{
		"status": enums.OfferStatusCountered,
	})
	require.NoError(t, err)
	assert.True(t, updated)

	// A stale writer sees zero rows affected.
	updated, err = repo.UpdateVersioned(context.Background(), offer.ID, 0, map[string]any{
		"status": enums.OfferStatusAccepted,
	})
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByOfferID(context.Background(), offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusCountered, found.Status)
	assert.Equal(t, 1, found.Version)
}

func TestRepositoryListOffersPagination(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	buyer := uuid.New()
	seller := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		insertOffer(t, repo, buyer, seller, enums.OfferStatusPending, base.Add(time.Duration(i)*time.Hour))
	}
	// Another buyer's offer must never surface in this list.
	insertOffer(t, repo, uuid.New(), seller, enums.OfferStatusPending, base)

	page, err := repo.ListOffers(context.Background(), buyer, pagination.Params{Limit: 2}, ListFilters{Direction: DirectionSent})
	require.NoError(t, err)
	require.Len(t, page.Offers, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Offers[0].CreatedAt.After(page.Offers[1].CreatedAt))

	rest, err := repo.ListOffers(context.Background(), buyer, pagination.Params{Limit: 2, Cursor: page.NextCursor}, ListFilters{Direction: DirectionSent})
	require.NoError(t, err)
	require.Len(t, rest.Offers, 1)
	assert.Empty(t, rest.NextCursor)

	received, err := repo.ListOffers(context.Background(), seller, pagination.Params{}, ListFilters{Direction: DirectionReceived})
	require.NoError(t, err)
	assert.Len(t, received.Offers, 4)

	status := enums.OfferStatusAccepted
	none, err := repo.ListOffers(context.Background(), buyer, pagination.Params{}, ListFilters{Direction: DirectionSent, Status: &status})
	require.NoError(t, err)
	assert.Empty(t, none.Offers)
}

func TestRepositoryFindExpiredDue(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	stale := insertOffer(t, repo, uuid.New(), uuid.New(), enums.OfferStatusPending, now.Add(-100*time.Hour))
	insertOffer(t, repo, uuid.New(), uuid.New(), enums.OfferStatusPending, now)
	closed := insertOffer(t, repo, uuid.New(), uuid.New(), enums.OfferStatusRejected, now.Add(-100*time.Hour))

	due, err := repo.FindExpiredDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, stale.ID, due[0].ID)
	assert.NotEqual(t, closed.ID, due[0].ID)
}

func TestRepositoryCountByStatus(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	buyer := uuid.New()
	now := time.Now().UTC()

	insertOffer(t, repo, buyer, uuid.New(), enums.OfferStatusAccepted, now)
	insertOffer(t, repo, buyer, uuid.New(), enums.OfferStatusAccepted, now)
	insertOffer(t, repo, buyer, uuid.New(), enums.OfferStatusPending, now)
	// Outside the window.
	insertOffer(t, repo, buyer, uuid.New(), enums.OfferStatusAccepted, now.AddDate(0, 0, -45))

	counts, err := repo.CountByStatus(context.Background(), buyer, DirectionSent, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[string(enums.OfferStatusAccepted)])
	assert.Equal(t, int64(1), counts[string(enums.OfferStatusPending)])
}
