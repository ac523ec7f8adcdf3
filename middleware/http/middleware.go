// Package http provides HTTP middleware for quota enforcement.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// UserIDExtractor extracts the user ID from an HTTP request.
// Return empty string if user is not authenticated; the ledger then
// fails open and the request proceeds unmetered.
type UserIDExtractor func(r *http.Request) string

// Config holds middleware configuration.
type Config struct {
	// Ledger is the quota ledger instance (required)
	Ledger *ledger.Ledger

	// GetUserID extracts user ID from request (required)
	GetUserID UserIDExtractor

	// SkipRecord disables usage recording after a successful response.
	// Use it when the wrapped handler records usage itself.
	SkipRecord bool

	// OnQuotaExceeded is called when the quota denies the request
	// If nil, returns 429 Too Many Requests with a JSON body
	OnQuotaExceeded func(w http.ResponseWriter, r *http.Request, decision ledger.Decision)
}

// deniedResponse is the default 429 body.
type deniedResponse struct {
	Error             string `json:"error"`
	Limit             string `json:"limit"`
	RetryAfterSeconds int64  `json:"retryAfterSeconds"`
}

// Middleware creates an HTTP middleware that enforces quota limits.
// Denials carry Retry-After and X-RateLimit-Remaining-* headers. After the
// wrapped handler responds successfully the query is recorded; recording is
// best-effort and never fails the response.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := config.GetUserID(r)

			decision := config.Ledger.Check(r.Context(), userID)

			w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.RemainingThisMinute))
			w.Header().Set("X-RateLimit-Remaining-Day", strconv.Itoa(decision.RemainingToday))

			if !decision.Allowed {
				if config.OnQuotaExceeded != nil {
					config.OnQuotaExceeded(w, r, decision)
					return
				}

				w.Header().Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(deniedResponse{
					Error:             decision.Message,
					Limit:             string(decision.LimitKind),
					RetryAfterSeconds: decision.RetryAfterSeconds,
				})
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if !config.SkipRecord && sw.status < http.StatusBadRequest {
				config.Ledger.Record(r.Context(), userID)
			}
		})
	}
}

// HandlerFunc creates an HTTP middleware that enforces quota limits (HandlerFunc version).
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

// statusWriter captures the response status so the middleware can decide
// whether to record usage.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(status int) {
	if !sw.wroteHeader {
		sw.status = status
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "quota:userID"
)

// FromContext returns an UserIDExtractor that gets user ID from request context.
func FromContext(key ContextKey) UserIDExtractor {
	return func(r *http.Request) string {
		if userID, ok := r.Context().Value(key).(string); ok {
			return userID
		}
		return ""
	}
}

// FromHeader returns an UserIDExtractor that gets user ID from a header.
func FromHeader(headerName string) UserIDExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// WithUserID adds user ID to request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
