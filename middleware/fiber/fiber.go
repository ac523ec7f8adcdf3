// Package fiber provides Fiber middleware for quota enforcement.
package fiber

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// UserIDExtractor extracts the user ID from a Fiber context.
// Return empty string if user is not authenticated; the ledger then
// fails open and the request proceeds unmetered.
type UserIDExtractor func(c *fiber.Ctx) string

// Config holds middleware configuration.
type Config struct {
	// Ledger is the quota ledger instance (required)
	Ledger *ledger.Ledger

	// GetUserID extracts user ID from context (required)
	GetUserID UserIDExtractor

	// SkipRecord disables usage recording after a successful response.
	// Use it when the wrapped handler records usage itself.
	SkipRecord bool

	// OnQuotaExceeded is called when the quota denies the request
	// If nil, returns 429 Too Many Requests with a JSON body
	OnQuotaExceeded func(c *fiber.Ctx, decision ledger.Decision) error
}

// Middleware creates a Fiber middleware that enforces quota limits.
// Denials carry Retry-After and X-RateLimit-Remaining-* headers. After the
// handler responds successfully the query is recorded; recording is
// best-effort and never fails the response.
func Middleware(cfg Config) fiber.Handler {
	// Validate required configuration at startup (fail fast)
	if cfg.Ledger == nil {
		panic("viajeia/fiber: Config.Ledger is required")
	}
	if cfg.GetUserID == nil {
		panic("viajeia/fiber: Config.GetUserID is required")
	}

	return func(c *fiber.Ctx) error {
		userID := cfg.GetUserID(c)

		decision := cfg.Ledger.Check(c.UserContext(), userID)

		c.Set("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.RemainingThisMinute))
		c.Set("X-RateLimit-Remaining-Day", strconv.Itoa(decision.RemainingToday))

		if !decision.Allowed {
			if cfg.OnQuotaExceeded != nil {
				return cfg.OnQuotaExceeded(c, decision)
			}

			c.Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":             decision.Message,
				"limit":             string(decision.LimitKind),
				"retryAfterSeconds": decision.RetryAfterSeconds,
			})
		}

		if err := c.Next(); err != nil {
			return err
		}

		if !cfg.SkipRecord && c.Response().StatusCode() < fiber.StatusBadRequest {
			cfg.Ledger.Record(c.UserContext(), userID)
		}
		return nil
	}
}

// Convenience extractors for User ID

// FromLocals returns a UserIDExtractor that gets user ID from Fiber locals
// set by auth middleware via c.Locals(key, "...").
func FromLocals(key string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		if val := c.Locals(key); val != nil {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Params(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(queryName)
	}
}
