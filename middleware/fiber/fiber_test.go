package fiber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

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

func newTestApp(led *ledger.Ledger, cfg Config) *fiber.App {
	cfg.Ledger = led
	if cfg.GetUserID == nil {
		cfg.GetUserID = FromHeader("X-User-ID")
	}

	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Post("/api/planificar", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestMiddleware_AllowsAndRecords(t *testing.T) {
	store := memory.New()
	led := newTestLedger(t, store, 1000)
	app := newTestApp(led, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-RateLimit-Remaining-Minute"); got != "5" {
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
	app := newTestApp(led, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// Denied requests are not recorded.
	recs, _ := store.GetRecords(context.Background(), "user1")
	if len(recs) != 5 {
		t.Errorf("Expected 5 records, got %d", len(recs))
	}
}

func TestMiddleware_FailsOpenWithoutUserID(t *testing.T) {
	led := newTestLedger(t, memory.New(), 1000)
	app := newTestApp(led, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected fail-open 200, got %d", resp.StatusCode)
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

	app := newTestApp(led, Config{
		OnQuotaExceeded: func(c *fiber.Ctx, decision ledger.Decision) error {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}
}

func TestMiddleware_DoesNotRecordFailedResponses(t *testing.T) {
	store := memory.New()
	led := newTestLedger(t, store, 1000)

	app := fiber.New()
	app.Use(Middleware(Config{
		Ledger:    led,
		GetUserID: FromHeader("X-User-ID"),
	}))
	app.Post("/api/planificar", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadGateway).SendString("backend down")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/planificar", nil)
	req.Header.Set("X-User-ID", "user1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", resp.StatusCode)
	}
	recs, _ := store.GetRecords(context.Background(), "user1")
	if len(recs) != 0 {
		t.Errorf("Expected no records after failed response, got %d", len(recs))
	}
}
