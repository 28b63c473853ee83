package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aumatinvert/storefront-api/pkg/logger"
)

// PromoCodeExpiryJobParams wires the promo code sweep.
type PromoCodeExpiryJobParams struct {
	Logger *logger.Logger
	Codes  promoCodeExpirer
}

type promoCodeExpirer interface {
	MarkLapsed(ctx context.Context, now time.Time) (int64, error)
}

// NewPromoCodeExpiryJob stamps lapsed_at on codes past valid_until or out of
// uses. It never deactivates them.
func NewPromoCodeExpiryJob(params PromoCodeExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("promo code service required")
	}
	return &promoCodeExpiryJob{
		logg:  params.Logger,
		codes: params.Codes,
		now:   time.Now,
	}, nil
}

type promoCodeExpiryJob struct {
	logg  *logger.Logger
	codes promoCodeExpirer
	now   func() time.Time
}

func (j *promoCodeExpiryJob) Name() string { return "promo-code-expiry" }

func (j *promoCodeExpiryJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	rows, err := j.codes.MarkLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("mark lapsed promo codes: %w", err)
	}
	if rows > 0 {
		j.logg.Info(j.logg.WithField(ctx, "lapsed", rows), "lapsed promo codes marked")
	}
	return rows, nil
}
