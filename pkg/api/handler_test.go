package api

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

const testUserID = "user123"

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestHandler(t *testing.T, store ledger.Store, nowSec int64) *Handler {
	t.Helper()

	led, err := ledger.New(store, ledger.Config{
		Clock:    fixedClock{now: time.Unix(nowSec, 0)},
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("ledger.New failed: %v", err)
	}

	handler, err := NewHandler(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	})
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	return handler
}

func TestNewHandler_RequiresConfig(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Error("Expected error for empty config")
	}

	led, err := ledger.New(memory.New(), ledger.Config{})
	if err != nil {
		t.Fatalf("ledger.New failed: %v", err)
	}
	if _, err := NewHandler(Config{Ledger: led}); err == nil {
		t.Error("Expected error for missing GetUserID")
	}
}

func TestGetUsage(t *testing.T) {
	store := memory.New()
	now := int64(200000)
	for _, ts := range []int64{now - 30, now - 10} {
		rec := ledger.QueryRecord{Timestamp: ts}
		if err := store.AppendRecord(context.Background(), testUserID, rec); err != nil {
			t.Fatalf("AppendRecord failed: %v", err)
		}
	}
	handler := newTestHandler(t, store, now)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req.Header.Set("X-User-ID", testUserID)
	rec := httptest.NewRecorder()

	handler.GetUsage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.UserID != testUserID {
		t.Errorf("Expected user %q, got %q", testUserID, resp.UserID)
	}
	if resp.CountLastMinute != 2 || resp.RemainingThisMinute != 3 {
		t.Errorf("Unexpected minute counters: %+v", resp)
	}
	if resp.CountToday != 2 || resp.RemainingToday != 48 {
		t.Errorf("Unexpected day counters: %+v", resp)
	}
	if resp.MaxPerMinute != 5 || resp.MaxPerDay != 50 {
		t.Errorf("Unexpected limits: %+v", resp)
	}
}

func TestGetUsage_MissingUserID(t *testing.T) {
	handler := newTestHandler(t, memory.New(), 1000)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	rec := httptest.NewRecorder()

	handler.GetUsage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestCheckQuota_Allowed(t *testing.T) {
	handler := newTestHandler(t, memory.New(), 1000)

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("X-User-ID", testUserID)
	rec := httptest.NewRecorder()

	handler.CheckQuota(rec, req)

	var resp CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Allowed {
		t.Error("Expected allowed decision")
	}
	if resp.RemainingThisMinute != 5 || resp.RemainingToday != 50 {
		t.Errorf("Unexpected remaining counts: %+v", resp)
	}
}

func TestCheckQuota_Denied(t *testing.T) {
	store := memory.New()
	now := int64(1000)
	for i := int64(0); i < 5; i++ {
		rec := ledger.QueryRecord{Timestamp: now - 10 - i}
		if err := store.AppendRecord(context.Background(), testUserID, rec); err != nil {
			t.Fatalf("AppendRecord failed: %v", err)
		}
	}
	handler := newTestHandler(t, store, now)

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("X-User-ID", testUserID)
	rec := httptest.NewRecorder()

	handler.CheckQuota(rec, req)

	var resp CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Allowed {
		t.Error("Expected denied decision")
	}
	if resp.Limit != string(ledger.LimitPerMinute) {
		t.Errorf("Expected per_minute denial, got %q", resp.Limit)
	}
	if resp.RetryAfterSeconds <= 0 {
		t.Errorf("Expected positive retry delay, got %d", resp.RetryAfterSeconds)
	}
	if resp.Message == "" {
		t.Error("Expected a denial message")
	}
}
