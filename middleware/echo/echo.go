// Package echo provides Echo middleware for quota enforcement.
package echo

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// UserIDExtractor extracts the user ID from an Echo context.
// Return empty string if user is not authenticated; the ledger then
// fails open and the request proceeds unmetered.
type UserIDExtractor func(c echo.Context) string

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
	OnQuotaExceeded func(c echo.Context, decision ledger.Decision) error
}

// Middleware creates an Echo middleware that enforces quota limits.
// Denials carry Retry-After and X-RateLimit-Remaining-* headers. After the
// handler responds successfully the query is recorded; recording is
// best-effort and never fails the response.
func Middleware(cfg Config) echo.MiddlewareFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Ledger == nil {
		panic("viajeia/echo: Config.Ledger is required")
	}
	if cfg.GetUserID == nil {
		panic("viajeia/echo: Config.GetUserID is required")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := cfg.GetUserID(c)

			decision := cfg.Ledger.Check(c.Request().Context(), userID)

			header := c.Response().Header()
			header.Set("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.RemainingThisMinute))
			header.Set("X-RateLimit-Remaining-Day", strconv.Itoa(decision.RemainingToday))

			if !decision.Allowed {
				if cfg.OnQuotaExceeded != nil {
					return cfg.OnQuotaExceeded(c, decision)
				}

				header.Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":             decision.Message,
					"limit":             string(decision.LimitKind),
					"retryAfterSeconds": decision.RetryAfterSeconds,
				})
			}

			if err := next(c); err != nil {
				return err
			}

			if !cfg.SkipRecord && c.Response().Status < http.StatusBadRequest {
				cfg.Ledger.Record(c.Request().Context(), userID)
			}
			return nil
		}
	}
}

// Convenience extractors for User ID

// FromContext returns a UserIDExtractor that gets user ID from Echo context values
// set by auth middleware via c.Set(key, "...").
func FromContext(key string) UserIDExtractor {
	return func(c echo.Context) string {
		if val := c.Get(key); val != nil {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.Param(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c echo.Context) string {
		return c.QueryParam(queryName)
	}
}
