package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aumatinvert/storefront-api/pkg/logger"
	"github.com/aumatinvert/storefront-api/pkg/retry"
)

const defaultPromotionGrace = 24 * time.Hour

// PromotionExpiryJobParams wires the promotion sweep.
type PromotionExpiryJobParams struct {
	Logger   *logger.Logger
	Products promotionExpirer
	Grace    time.Duration
	Policy   retry.Policy
}

type promotionExpirer interface {
	ExpirePromotions(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewPromotionExpiryJob clears the active flag on product and tier
// promotions that ended more than Grace ago. Ended promotions are already
// ignored at pricing time, so the grace only delays the cleanup.
func NewPromotionExpiryJob(params PromotionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultPromotionGrace
	}
	return &promotionExpiryJob{
		logg:     params.Logger,
		products: params.Products,
		grace:    grace,
		policy:   params.Policy,
		now:      time.Now,
	}, nil
}

type promotionExpiryJob struct {
	logg     *logger.Logger
	products promotionExpirer
	grace    time.Duration
	policy   retry.Policy
	now      func() time.Time
}

func (j *promotionExpiryJob) Name() string { return "promotion-expiry" }

func (j *promotionExpiryJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.grace)
	rows, err := retry.Value(ctx, j.policy, func() (int64, error) {
		return j.products.ExpirePromotions(ctx, cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("expire promotions: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"cleared": rows,
	}), "ended promotions cleared")
	return rows, nil
}
