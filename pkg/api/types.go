package api

// UsageResponse represents the current usage counters for a user.
type UsageResponse struct {
	UserID              string `json:"userId"`
	CountLastMinute     int    `json:"countLastMinute"`
	CountToday          int    `json:"countToday"`
	RemainingThisMinute int    `json:"remainingThisMinute"`
	RemainingToday      int    `json:"remainingToday"`
	MaxPerMinute        int    `json:"maxPerMinute"`
	MaxPerDay           int    `json:"maxPerDay"`
}

// CheckResponse represents a dry-run quota decision.
type CheckResponse struct {
	UserID              string `json:"userId"`
	Allowed             bool   `json:"allowed"`
	Limit               string `json:"limit,omitempty"` // "per_minute", "per_day"
	RetryAfterSeconds   int64  `json:"retryAfterSeconds,omitempty"`
	Message             string `json:"message,omitempty"`
	RemainingThisMinute int    `json:"remainingThisMinute"`
	RemainingToday      int    `json:"remainingToday"`
}
