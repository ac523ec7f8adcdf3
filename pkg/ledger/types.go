package ledger

import (
	"time"
)

// LimitKind identifies which quota window caused a denial.
type LimitKind string

const (
	// LimitPerMinute denotes the rolling 60-second window limit.
	LimitPerMinute LimitKind = "per_minute"
	// LimitPerDay denotes the calendar-day limit.
	LimitPerDay LimitKind = "per_day"
)

// QueryRecord is one accepted query event as persisted in the record store.
// Timestamp is authoritative; OccurredAt is a redundant human-readable copy.
type QueryRecord struct {
	// Timestamp is seconds since epoch, assigned by the clock at record time.
	Timestamp int64 `json:"timestamp"`

	// OccurredAt is the ISO-8601 rendering of Timestamp.
	OccurredAt string `json:"fecha"`
}

// UsageWindow is a point-in-time view of a user's query activity,
// computed on demand and never persisted.
type UsageWindow struct {
	// CountLastMinute is the number of queries in the trailing 60 seconds.
	CountLastMinute int

	// CountToday is the number of queries since local midnight.
	CountToday int

	// RemainingThisMinute is how many queries are still allowed this minute.
	RemainingThisMinute int

	// RemainingToday is how many queries are still allowed today.
	RemainingToday int
}

// Decision is the result of a quota check at a point in time.
// A denial is a value, not an error; callers surface Message and
// RetryAfterSeconds to the user and drop the query.
type Decision struct {
	// Allowed reports whether the query may proceed.
	Allowed bool

	// LimitKind is set on denial to the window that rejected the query.
	LimitKind LimitKind

	// RetryAfterSeconds is how long the caller should wait before retrying.
	// Always >= 0; only meaningful on denial.
	RetryAfterSeconds int64

	// Message is a human-readable explanation embedding the limit and wait time.
	Message string

	// RemainingThisMinute is set when allowed.
	RemainingThisMinute int

	// RemainingToday is set when allowed.
	RemainingToday int
}

// Clock supplies wall-clock time. Injected so tests can pin time exactly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config holds ledger configuration. The zero value of each field is
// replaced with the corresponding default by New.
type Config struct {
	// MaxPerMinute is the query limit for the rolling minute window (default: 5).
	MaxPerMinute int

	// MaxPerDay is the query limit for the calendar day (default: 50).
	MaxPerDay int

	// MinuteWindow is the rolling window length (default: 60s).
	MinuteWindow time.Duration

	// DayWindow is the calendar-day length (default: 24h).
	DayWindow time.Duration

	// Retention bounds record history; records older than this are removed
	// during compaction (default: 24h).
	Retention time.Duration

	// Location determines where "local midnight" falls (default: time.Local).
	Location *time.Location

	// Clock is the time source (default: SystemClock).
	Clock Clock

	// Logger is used for structured logging (default: NoopLogger).
	Logger Logger

	// Metrics is used for tracking ledger operations (default: NoopMetrics).
	Metrics Metrics
}
