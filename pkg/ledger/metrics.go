package ledger

import "time"

// Metrics defines the interface for tracking ledger operations.
type Metrics interface {
	// RecordQuotaCheck records the outcome and duration of a quota check.
	// kind is empty when the check allowed the query.
	RecordQuotaCheck(userID string, allowed bool, kind LimitKind, duration time.Duration)

	// RecordQueryRecorded records one accepted query being written.
	RecordQueryRecorded(userID string)

	// RecordCompaction records the number of stale records removed.
	RecordCompaction(userID string, removed int)

	// RecordStoreError records a failed record-store operation.
	RecordStoreError(operation string)

	// RecordFailOpen records a check that was allowed because enforcement
	// itself was unavailable (missing identity or store outage).
	RecordFailOpen(reason string)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordQuotaCheck(userID string, allowed bool, kind LimitKind, duration time.Duration) {
}
func (n *NoopMetrics) RecordQueryRecorded(userID string)          {}
func (n *NoopMetrics) RecordCompaction(userID string, removed int) {}
func (n *NoopMetrics) RecordStoreError(operation string)           {}
func (n *NoopMetrics) RecordFailOpen(reason string)                {}
