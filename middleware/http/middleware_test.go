package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/viajeia/viajeia-go/pkg/ledger"
	"github.com/viajeia/viajeia-go/store/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestLedger(t *testing.T, store ledger.Store, nowSec int64) *ledger.Ledger {
	t.Helper()

	led, err := ledger.New(store, ledger.Config{
		Clock:    fixedClock{now: time.Unix(nowSec, 0)},
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("ledger.New failed: %v", err)
	}
	return led
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestMiddleware_AllowsAndRecords(t *testing.T) {
	store := memory.New()
	led := newTestLedger(t, store, 1000)

	handler := Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining-Minute"); got != "5" {
		t.Errorf("Expected remaining minute header 5, got %q", got)
	}

	recs, err := store.GetRecords(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("Expected 1 recorded query, got %d", len(recs))
	}
}

func TestMiddleware_DeniesWithRetryAfter(t *testing.T) {
	store := memory.New()
	now := int64(1000)
	for i := int64(0); i < 5; i++ {
		rec := ledger.QueryRecord{Timestamp: now - 10 - i}
		if err := store.AppendRecord(context.Background(), "user1", rec); err != nil {
			t.Fatalf("AppendRecord failed: %v", err)
		}
	}
	led := newTestLedger(t, store, now)

	handler := Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	var body deniedResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Limit != string(ledger.LimitPerMinute) {
		t.Errorf("Expected per_minute limit, got %q", body.Limit)
	}
	if body.Error == "" {
		t.Error("Expected denial message")
	}

	// Denied requests are not recorded.
	recs, _ := store.GetRecords(context.Background(), "user1")
	if len(recs) != 5 {
		t.Errorf("Expected 5 records, got %d", len(recs))
	}
}

func TestMiddleware_FailsOpenWithoutUserID(t *testing.T) {
	store := memory.New()
	led := newTestLedger(t, store, 1000)

	handler := Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected fail-open 200, got %d", rec.Code)
	}
}

func TestMiddleware_DoesNotRecordFailedResponses(t *testing.T) {
	store := memory.New()
	led := newTestLedger(t, store, 1000)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	})
	handler := Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})(failing)

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	recs, _ := store.GetRecords(context.Background(), "user1")
	if len(recs) != 0 {
		t.Errorf("Expected no records after failed response, got %d", len(recs))
	}
}

func TestMiddleware_CustomDenialHandler(t *testing.T) {
	store := memory.New()
	now := int64(1000)
	for i := int64(0); i < 5; i++ {
		rec := ledger.QueryRecord{Timestamp: now - 10 - i}
		if err := store.AppendRecord(context.Background(), "user1", rec); err != nil {
			t.Fatalf("AppendRecord failed: %v", err)
		}
	}
	led := newTestLedger(t, store, now)

	called := false
	handler := Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
		OnQuotaExceeded: func(w http.ResponseWriter, r *http.Request, decision ledger.Decision) {
			called = true
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("Expected custom denial handler to be called")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestHandlerFunc(t *testing.T) {
	led := newTestLedger(t, memory.New(), 1000)

	wrapped := HandlerFunc(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()

	wrapped(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "user1")
	extract := FromContext(UserIDKey)

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	if got := extract(req); got != "user1" {
		t.Errorf("Expected user1, got %q", got)
	}
}
