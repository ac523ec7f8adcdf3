// Package ledger implements per-user query-rate accounting over a shared
// remote record store. It tracks a rolling 60-second window and a calendar-day
// window, denies over-quota queries with accurate wait-time estimates, and
// prunes stale records opportunistically on every accepted query.
//
// The ledger is stateless per call: every operation is a fresh
// read-compute-(optional write) cycle against the store, so correctness
// depends only on the store's read-your-writes behavior for a single user.
// Enforcement is fail-open: a missing identity or an unreachable store
// resolves to "allowed" rather than blocking the caller.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Ledger computes and enforces per-user query-rate limits.
type Ledger struct {
	store  Store
	config Config
}

// New creates a ledger over the given record store.
func New(store Store, config Config) (*Ledger, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	// Set defaults
	if config.MaxPerMinute == 0 {
		config.MaxPerMinute = 5
	}
	if config.MaxPerDay == 0 {
		config.MaxPerDay = 50
	}
	if config.MinuteWindow == 0 {
		config.MinuteWindow = 60 * time.Second
	}
	if config.DayWindow == 0 {
		config.DayWindow = 24 * time.Hour
	}
	if config.Retention == 0 {
		config.Retention = 24 * time.Hour
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}

	return &Ledger{
		store:  store,
		config: config,
	}, nil
}

// Check reports whether the user may query now.
func (l *Ledger) Check(ctx context.Context, userID string) Decision {
	return l.CheckAt(ctx, userID, l.config.Clock.Now())
}

// CheckAt reports whether the user may query at the given instant.
//
// An empty userID and a store failure both resolve to "allowed": the ledger
// must never block an unauthenticated caller on a missing identifier, and a
// transient store outage must never block all users.
func (l *Ledger) CheckAt(ctx context.Context, userID string, now time.Time) Decision {
	start := time.Now()

	if userID == "" {
		l.config.Metrics.RecordFailOpen("missing_user_id")
		return allowAll(l.config)
	}

	recs, err := l.store.GetRecords(ctx, userID)
	if err != nil {
		l.config.Logger.Warn("quota check failed open: record store unreachable",
			Field{Key: "user_id", Value: userID},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("get_records")
		l.config.Metrics.RecordFailOpen("store_unavailable")
		return allowAll(l.config)
	}

	nowSec := now.Unix()
	minuteFloor := nowSec - int64(l.config.MinuteWindow/time.Second)
	dayStart := startOfLocalDay(now, l.config.Location).Unix()

	// Partition the history into the two windows. Lower bounds are
	// inclusive: a record exactly at now-60 still counts, which keeps the
	// retry arithmetic exact.
	countMinute, countToday := 0, 0
	var oldestInMinute int64
	for _, rec := range recs {
		if rec.Timestamp >= minuteFloor {
			if countMinute == 0 || rec.Timestamp < oldestInMinute {
				oldestInMinute = rec.Timestamp
			}
			countMinute++
		}
		if rec.Timestamp >= dayStart {
			countToday++
		}
	}

	if countMinute >= l.config.MaxPerMinute {
		retry := int64(l.config.MinuteWindow/time.Second) - (nowSec - oldestInMinute)
		if retry < 0 {
			retry = 0
		}
		d := Decision{
			Allowed:           false,
			LimitKind:         LimitPerMinute,
			RetryAfterSeconds: retry,
			Message: fmt.Sprintf("You have reached the limit of %d queries per minute. Wait %d seconds.",
				l.config.MaxPerMinute, retry),
		}
		l.config.Metrics.RecordQuotaCheck(userID, false, LimitPerMinute, time.Since(start))
		return d
	}

	if countToday >= l.config.MaxPerDay {
		retry := dayStart + int64(l.config.DayWindow/time.Second) - nowSec
		if retry < 0 {
			retry = 0
		}
		hours := (retry + 3599) / 3600
		d := Decision{
			Allowed:           false,
			LimitKind:         LimitPerDay,
			RetryAfterSeconds: retry,
			Message: fmt.Sprintf("You have reached the limit of %d queries per day. You can query again in %d hour(s).",
				l.config.MaxPerDay, hours),
		}
		l.config.Metrics.RecordQuotaCheck(userID, false, LimitPerDay, time.Since(start))
		return d
	}

	l.config.Metrics.RecordQuotaCheck(userID, true, "", time.Since(start))
	return Decision{
		Allowed:             true,
		RemainingThisMinute: l.config.MaxPerMinute - countMinute,
		RemainingToday:      l.config.MaxPerDay - countToday,
	}
}

// Record appends one accepted-query event for the user.
func (l *Ledger) Record(ctx context.Context, userID string) {
	l.RecordAt(ctx, userID, l.config.Clock.Now())
}

// RecordAt appends one accepted-query event timestamped at the given instant,
// bumps the day's write-only usage counter, and compacts records older than
// the retention window.
//
// Not idempotent: two calls with the same instant record two distinct events.
// All store errors are swallowed and logged; a missed accounting write only
// risks under-counting, never blocking the user.
func (l *Ledger) RecordAt(ctx context.Context, userID string, now time.Time) {
	if userID == "" {
		return
	}

	nowSec := now.Unix()
	rec := QueryRecord{
		Timestamp:  nowSec,
		OccurredAt: now.UTC().Format(time.RFC3339),
	}

	if err := l.store.AppendRecord(ctx, userID, rec); err != nil {
		l.config.Logger.Error("failed to record query",
			Field{Key: "user_id", Value: userID},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("append_record")
		return
	}
	l.config.Metrics.RecordQueryRecorded(userID)

	day := now.In(l.config.Location).Format("2006-01-02")
	if err := l.store.IncrementDailyStat(ctx, userID, day); err != nil {
		l.config.Logger.Warn("failed to bump daily stat",
			Field{Key: "user_id", Value: userID},
			Field{Key: "day", Value: day},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("increment_daily_stat")
	}

	l.compact(ctx, userID, nowSec)
}

// compact removes records older than the retention window. There is no
// background process, so compaction rides along with every recorded query;
// the read-modify-write is unprotected and last-writer-wins across tabs.
func (l *Ledger) compact(ctx context.Context, userID string, nowSec int64) {
	recs, err := l.store.GetRecords(ctx, userID)
	if err != nil {
		l.config.Logger.Warn("compaction skipped: record store unreachable",
			Field{Key: "user_id", Value: userID},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("get_records")
		return
	}

	cutoff := nowSec - int64(l.config.Retention/time.Second)
	kept := make([]QueryRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Timestamp >= cutoff {
			kept = append(kept, rec)
		}
	}

	removed := len(recs) - len(kept)
	if removed == 0 {
		return
	}

	if err := l.store.SetRecords(ctx, userID, kept); err != nil {
		l.config.Logger.Warn("compaction write-back failed",
			Field{Key: "user_id", Value: userID},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("set_records")
		return
	}
	l.config.Metrics.RecordCompaction(userID, removed)
}

// Snapshot returns the user's current usage counts for display.
func (l *Ledger) Snapshot(ctx context.Context, userID string) UsageWindow {
	return l.SnapshotAt(ctx, userID, l.config.Clock.Now())
}

// SnapshotAt is the read-only variant of the counting logic in CheckAt,
// used purely for display. It returns zeros when the identifier is absent
// or the store is unreachable; display callers must never crash on
// quota-service unavailability.
func (l *Ledger) SnapshotAt(ctx context.Context, userID string, now time.Time) UsageWindow {
	if userID == "" {
		return UsageWindow{
			RemainingThisMinute: l.config.MaxPerMinute,
			RemainingToday:      l.config.MaxPerDay,
		}
	}

	recs, err := l.store.GetRecords(ctx, userID)
	if err != nil {
		l.config.Logger.Warn("usage snapshot unavailable",
			Field{Key: "user_id", Value: userID},
			Field{Key: "error", Value: err.Error()},
		)
		l.config.Metrics.RecordStoreError("get_records")
		return UsageWindow{
			RemainingThisMinute: l.config.MaxPerMinute,
			RemainingToday:      l.config.MaxPerDay,
		}
	}

	nowSec := now.Unix()
	minuteFloor := nowSec - int64(l.config.MinuteWindow/time.Second)
	dayStart := startOfLocalDay(now, l.config.Location).Unix()

	w := UsageWindow{}
	for _, rec := range recs {
		if rec.Timestamp >= minuteFloor {
			w.CountLastMinute++
		}
		if rec.Timestamp >= dayStart {
			w.CountToday++
		}
	}
	w.RemainingThisMinute = maxInt(0, l.config.MaxPerMinute-w.CountLastMinute)
	w.RemainingToday = maxInt(0, l.config.MaxPerDay-w.CountToday)
	return w
}

// Config returns the ledger's effective configuration after defaulting.
func (l *Ledger) Config() Config {
	return l.config
}

func allowAll(cfg Config) Decision {
	return Decision{
		Allowed:             true,
		RemainingThisMinute: cfg.MaxPerMinute,
		RemainingToday:      cfg.MaxPerDay,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
