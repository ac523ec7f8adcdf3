package ledger

import "context"

// Store defines the interface for query-record persistence.
// Implementations wrap a remote, eventually-available document store with
// no transactions; the compaction read-modify-write in Record is therefore
// last-writer-wins under concurrent access, which the design accepts.
type Store interface {
	// GetRecords retrieves all query records under the user's subtree.
	// Returns an empty slice (not an error) when the user has no history.
	GetRecords(ctx context.Context, userID string) ([]QueryRecord, error)

	// AppendRecord appends one query record under the user's subtree with a
	// store-assigned auto id. Records are immutable once written.
	AppendRecord(ctx context.Context, userID string, rec QueryRecord) error

	// SetRecords replaces the user's record set. Used by compaction to
	// write back the surviving records.
	SetRecords(ctx context.Context, userID string, recs []QueryRecord) error

	// IncrementDailyStat bumps the per-day counter for the given day
	// (formatted yyyy-mm-dd). Write-only; the ledger never reads it back.
	IncrementDailyStat(ctx context.Context, userID, day string) error
}
