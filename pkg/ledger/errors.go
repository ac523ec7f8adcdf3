package ledger

import "errors"

var (
	// ErrStoreRequired is returned by New when no record store is given.
	ErrStoreRequired = errors.New("record store is required")

	// ErrStoreUnavailable indicates the record store could not be reached.
	// The ledger never propagates it to callers; it exists so store
	// implementations can classify transport failures consistently.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
