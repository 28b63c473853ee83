package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aumatinvert/storefront-api/pkg/config"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

// Policy bounds the exponential backoff applied to store calls.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy retries three times starting at 100ms and doubling up to 1s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Once makes a single attempt. Calls made inside a transaction that is
// itself retried use it, since an aborted transaction cannot recover.
func Once() Policy {
	return Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

// PolicyFromConfig builds the store policy from the pricing settings.
func PolicyFromConfig(cfg config.PricingConfig) Policy {
	retries, initial, max := cfg.RetryBounds()
	return Policy{MaxRetries: retries, InitialInterval: initial, MaxInterval: max}
}

// Do runs op, retrying only transient failures. Permanent errors are returned
// unchanged on first occurrence.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.InitialInterval <= 0 {
		p = DefaultPolicy()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// IsTransient reports whether err is a network-class failure worth retrying.
// Validation, conflict and not-found outcomes never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeConflict, pkgerrors.CodeNotFound,
			pkgerrors.CodeUnauthorized, pkgerrors.CodeForbidden, pkgerrors.CodeIdempotency:
			return false
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P01..03: server shutting down
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	if code := pkgerrors.PGCode(err); code != "" {
		return strings.HasPrefix(code, "08")
	}
	return false
}
