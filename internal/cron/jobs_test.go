package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aumatinvert/storefront-api/pkg/retry"
)

type fakeCodes struct {
	now  time.Time
	rows int64
	err  error
}

func (f *fakeCodes) MarkLapsed(_ context.Context, now time.Time) (int64, error) {
	f.now = now
	return f.rows, f.err
}

type fakeProducts struct {
	cutoff time.Time
	rows   int64
	errs   []error
	calls  int
}

func (f *fakeProducts) ExpirePromotions(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return 0, err
	}
	return f.rows, nil
}

var fixedNow = time.Date(2026, 6, 21, 3, 0, 0, 0, time.FixedZone("CEST", 2*3600))

func TestPromoCodeExpiryJobPassesUTCNow(t *testing.T) {
	codes := &fakeCodes{rows: 3}
	iface, err := NewPromoCodeExpiryJob(PromoCodeExpiryJobParams{Logger: testLogger(), Codes: codes})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := iface.(*promoCodeExpiryJob)
	job.now = func() time.Time { return fixedNow }

	rows, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 rows, got %d", rows)
	}
	if !codes.now.Equal(fixedNow) || codes.now.Location() != time.UTC {
		t.Fatalf("expected UTC now, got %s", codes.now)
	}
	if job.Name() != "promo-code-expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
}

func TestPromoCodeExpiryJobPropagatesErrors(t *testing.T) {
	iface, _ := NewPromoCodeExpiryJob(PromoCodeExpiryJobParams{Logger: testLogger(), Codes: &fakeCodes{err: errors.New("boom")}})
	if _, err := iface.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewPromoCodeExpiryJob(PromoCodeExpiryJobParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestPromotionExpiryJobAppliesGrace(t *testing.T) {
	products := &fakeProducts{rows: 2}
	iface, err := NewPromotionExpiryJob(PromotionExpiryJobParams{
		Logger:   testLogger(),
		Products: products,
		Grace:    48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := iface.(*promotionExpiryJob)
	job.now = func() time.Time { return fixedNow }

	rows, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows, got %d", rows)
	}
	if want := fixedNow.UTC().Add(-48 * time.Hour); !products.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, products.cutoff)
	}
}

func TestPromotionExpiryJobDefaultsGrace(t *testing.T) {
	products := &fakeProducts{}
	iface, _ := NewPromotionExpiryJob(PromotionExpiryJobParams{Logger: testLogger(), Products: products})
	job := iface.(*promotionExpiryJob)
	if job.grace != defaultPromotionGrace {
		t.Fatalf("expected default grace, got %s", job.grace)
	}
}

func TestPromotionExpiryJobRetriesTransientFailures(t *testing.T) {
	products := &fakeProducts{rows: 1, errs: []error{io.ErrUnexpectedEOF}}
	iface, _ := NewPromotionExpiryJob(PromotionExpiryJobParams{
		Logger:   testLogger(),
		Products: products,
		Policy:   retry.Policy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})

	rows, err := iface.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rows != 1 || products.calls != 2 {
		t.Fatalf("expected one retry, rows=%d calls=%d", rows, products.calls)
	}
}

func TestPromotionExpiryJobStopsOnPermanentFailure(t *testing.T) {
	products := &fakeProducts{errs: []error{errors.New("syntax error at or near")}}
	iface, _ := NewPromotionExpiryJob(PromotionExpiryJobParams{
		Logger:   testLogger(),
		Products: products,
		Policy:   retry.Policy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
	if _, err := iface.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if products.calls != 1 {
		t.Fatalf("permanent errors must not be retried, calls=%d", products.calls)
	}
}
