package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

const redeemPattern = "/api/v1/promo-codes/redeem"

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func redeemRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, redeemPattern, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{redeemPattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(WithSubject(ctx, "checkout-svc", "checkout"))
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := Idempotency(newFakeStore(), time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, redeemRequest(`{"code":"BIENVENUE"}`, ""))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if called {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, 7*24*time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"code":"BIENVENUE"}` {
			t.Errorf("handler saw body %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"usage_count":1}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, redeemRequest(`{"code":"BIENVENUE"}`, "order-42"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, redeemRequest(`{"code":"BIENVENUE"}`, "order-42"))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replay 201 got %d", replay.Code)
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if replay.Body.String() != `{"data":{"usage_count":1}}` {
		t.Fatalf("unexpected replay body %s", replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	for _, ttl := range store.ttls {
		if ttl != 7*24*time.Hour {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	handler := Idempotency(newFakeStore(), time.Hour, nil)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), redeemRequest(`{"code":"BIENVENUE"}`, "xyz"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, redeemRequest(`{"code":"ETE2026"}`, "xyz"))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), redeemRequest(`{}`, "retry-me"))
	handler.ServeHTTP(httptest.NewRecorder(), redeemRequest(`{}`, "retry-me"))
	if calls != 2 {
		t.Fatalf("expected handler to run again after 503, ran %d times", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("server errors must not be stored")
	}
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	duplicate := httptest.NewRecorder()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a duplicate arrives while the first redemption is still running
		Idempotency(store, time.Hour, nil)(okHandler()).ServeHTTP(duplicate, redeemRequest(`{"code":"BIENVENUE"}`, "order-7"))
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, redeemRequest(`{"code":"BIENVENUE"}`, "order-7"))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}
	if duplicate.Code != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate to get 409, got %d", duplicate.Code)
	}
	if !strings.Contains(duplicate.Body.String(), "still in progress") {
		t.Fatalf("unexpected duplicate body %s", duplicate.Body.String())
	}
}

func TestIdempotencyClaimUsesShortTTL(t *testing.T) {
	store := newFakeStore()
	var claimTTL time.Duration
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, ttl := range store.ttls {
			claimTTL = ttl
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), redeemRequest(`{}`, "order-9"))
	if claimTTL != pendingClaimTTL {
		t.Fatalf("expected pending claim ttl %s, got %s", pendingClaimTTL, claimTTL)
	}
	for _, ttl := range store.ttls {
		if ttl != time.Hour {
			t.Fatalf("finished record should carry the configured ttl, got %s", ttl)
		}
	}
}
