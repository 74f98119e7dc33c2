package offers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) FindByOfferID(ctx context.Context, offerID string) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("offer_id = ? AND is_deleted = false", offerID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	payload := make(map[string]any, len(updates)+1)
	for key, value := range updates {
		payload[key] = value
	}
	payload["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(payload)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListOffers(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OfferList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("is_deleted = false")

	switch filters.Direction {
	case DirectionSent:
		query = query.Where("buyer_id = ?", userID)
	case DirectionReceived:
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Offer
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OfferList{Offers: rows}
	if len(rows) > normalizedLimit {
		list.Offers = rows[:normalizedLimit]
		last := list.Offers[len(list.Offers)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) ListOpenOffers(ctx context.Context, userID uuid.UUID, limit int) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("(buyer_id = ? OR seller_id = ?) AND is_deleted = false", userID, userID).
		Where("status IN ?", enums.OpenOfferStatuses).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindExpiredDue(ctx context.Context, now time.Time, limit int) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("status IN ? AND end_date < ? AND is_deleted = false", enums.OpenOfferStatuses, now).
		Order("end_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByStatus(ctx context.Context, userID uuid.UUID, direction ListDirection, since time.Time) (map[string]int64, error) {
	column := "buyer_id"
	if direction == DirectionReceived {
		column = "seller_id"
	}

	type statusCount struct {
		Status string
		Total  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Select("status, COUNT(*) AS total").
		Where(column+" = ? AND is_deleted = false AND created_at >= ?", userID, since).
		Group("status").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(counts))
	for _, row := range counts {
		result[row.Status] = row.Total
	}
	return result, nil
}
