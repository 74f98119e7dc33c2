package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

// Repository defines persistence operations for the offers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByOfferID(ctx context.Context, offerID string) (*models.Offer, error)
	// UpdateVersioned applies updates only when the stored version still
	// matches expectedVersion, bumping it in the same statement. It
	// reports whether a row was written.
	UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	ListOffers(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OfferList, error)
	ListOpenOffers(ctx context.Context, userID uuid.UUID, limit int) ([]models.Offer, error)
	FindExpiredDue(ctx context.Context, now time.Time, limit int) ([]models.Offer, error)
	CountByStatus(ctx context.Context, userID uuid.UUID, direction ListDirection, since time.Time) (map[string]int64, error)
}
