package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shannu2342/wholexale-backend/pkg/logger"
)

const defaultExpiryBatchSize = 200

// OfferExpiryJobParams configure the offer expiry sweep.
type OfferExpiryJobParams struct {
	Logger    *logger.Logger
	Offers    offerExpirer
	BatchSize int
}

type offerExpirer interface {
	ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// NewOfferExpiryJob builds the job that closes offers past their end date.
func NewOfferExpiryJob(params OfferExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &offerExpiryJob{
		logg:      params.Logger,
		offers:    params.Offers,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type offerExpiryJob struct {
	logg      *logger.Logger
	offers    offerExpirer
	batchSize int
	now       func() time.Time
}

func (j *offerExpiryJob) Name() string { return "offer-expiry" }

// Run sweeps expired offers in batches until a sweep comes back short,
// meaning no further rows were due at the start of the cycle.
func (j *offerExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	total := 0
	for {
		expired, err := j.offers.ExpireDue(ctx, now, j.batchSize)
		if err != nil {
			return fmt.Errorf("offer expiry sweep: %w", err)
		}
		total += expired
		if expired < j.batchSize {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": total,
		"as_of":   now,
	})
	j.logg.Info(logCtx, "offer expiry sweep complete")
	return nil
}
