package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aumatinvert/storefront-api/pkg/config"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

func fastPolicy() Policy {
	return Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 4 * time.Millisecond}
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), fastPolicy(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("list tiers: %w", syscall.ECONNRESET)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoStopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), fastPolicy(), func() error {
		attempts++
		return syscall.ECONNREFUSED
	})
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 1 attempt + 3 retries, got %d", attempts)
	}
}

func TestOnceMakesSingleAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), Once(), func() error {
		attempts++
		return syscall.ECONNRESET
	})
	if !errors.Is(err, syscall.ECONNRESET) {
		t.Fatalf("expected transient error back, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	validation := pkgerrors.New(pkgerrors.CodeValidation, "duplicate tier quantity 6")
	err := Do(context.Background(), fastPolicy(), func() error {
		attempts++
		return validation
	})
	if !errors.Is(err, validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDoHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Policy{MaxRetries: 3, InitialInterval: time.Hour, MaxInterval: time.Hour}, func() error {
		attempts++
		return syscall.ECONNRESET
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if attempts > 1 {
		t.Fatalf("expected no retries once cancelled, got %d attempts", attempts)
	}
}

func TestValueReturnsResult(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Value(context.Background(), fastPolicy(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %d (err=%v)", got, err)
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "conn reset", err: syscall.ECONNRESET, want: true},
		{name: "net op", err: &net.OpError{Op: "read", Err: errors.New("broken")}, want: true},
		{name: "pg connection failure", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "validation", err: pkgerrors.New(pkgerrors.CodeValidation, "bad"), want: false},
		{name: "conflict wrapping network", err: pkgerrors.Wrap(pkgerrors.CodeConflict, syscall.ECONNRESET, "limit reached"), want: false},
		{name: "dependency wrapping network", err: pkgerrors.Wrap(pkgerrors.CodeDependency, syscall.ECONNRESET, "load"), want: true},
		{name: "context cancelled", err: context.Canceled, want: false},
		{name: "plain", err: errors.New("record not found"), want: false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.PricingConfig{StoreRetries: 5, StoreRetryInterval: 50 * time.Millisecond, StoreRetryMaxDelay: 2 * time.Second})
	if p.MaxRetries != 5 || p.InitialInterval != 50*time.Millisecond || p.MaxInterval != 2*time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}

	p = PolicyFromConfig(config.PricingConfig{})
	if p.MaxRetries != 0 || p.InitialInterval != 100*time.Millisecond || p.MaxInterval != 100*time.Millisecond {
		t.Fatalf("zero config should keep a sane interval, got %+v", p)
	}
}
