package ledger

import "time"

// startOfLocalDay returns midnight of t's calendar day in the given location.
// The day window is anchored to local midnight, not a rolling 24 hours, so
// the daily count resets when the local date changes.
func startOfLocalDay(t time.Time, loc *time.Location) time.Time {
	tt := t.In(loc)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, loc)
}
