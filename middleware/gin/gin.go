// Package gin provides Gin middleware for quota enforcement.
package gin

import (
	"net/http"
	"strconv"

	gongin "github.com/gin-gonic/gin"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// UserIDExtractor extracts the user ID from a Gin context.
// Return empty string if user is not authenticated; the ledger then
// fails open and the request proceeds unmetered.
type UserIDExtractor func(c *gongin.Context) string

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
	OnQuotaExceeded func(c *gongin.Context, decision ledger.Decision)
}

// Middleware creates a Gin middleware that enforces quota limits.
// Denials carry Retry-After and X-RateLimit-Remaining-* headers. After the
// handler chain responds successfully the query is recorded; recording is
// best-effort and never fails the response.
func Middleware(cfg Config) gongin.HandlerFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Ledger == nil {
		panic("viajeia/gin: Config.Ledger is required")
	}
	if cfg.GetUserID == nil {
		panic("viajeia/gin: Config.GetUserID is required")
	}

	return func(c *gongin.Context) {
		userID := cfg.GetUserID(c)

		decision := cfg.Ledger.Check(c.Request.Context(), userID)

		c.Header("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.RemainingThisMinute))
		c.Header("X-RateLimit-Remaining-Day", strconv.Itoa(decision.RemainingToday))

		if !decision.Allowed {
			if cfg.OnQuotaExceeded != nil {
				cfg.OnQuotaExceeded(c, decision)
			} else {
				c.Header("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
				c.JSON(http.StatusTooManyRequests, gongin.H{
					"error":             decision.Message,
					"limit":             string(decision.LimitKind),
					"retryAfterSeconds": decision.RetryAfterSeconds,
				})
			}
			c.Abort()
			return
		}

		c.Next()

		if !cfg.SkipRecord && c.Writer.Status() < http.StatusBadRequest {
			cfg.Ledger.Record(c.Request.Context(), userID)
		}
	}
}

// Convenience extractors for User ID

// FromContext returns a UserIDExtractor that gets user ID from Gin context values
// set by auth middleware via c.Set(key, "...").
func FromContext(key string) UserIDExtractor {
	return func(c *gongin.Context) string {
		if val, exists := c.Get(key); exists {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns a UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.GetHeader(headerName)
	}
}

// FromParam returns a UserIDExtractor that gets user ID from a route parameter
func FromParam(paramName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.Param(paramName)
	}
}

// FromQuery returns a UserIDExtractor that gets user ID from a query parameter
func FromQuery(queryName string) UserIDExtractor {
	return func(c *gongin.Context) string {
		return c.Query(queryName)
	}
}
