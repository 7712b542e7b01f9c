package models

import "time"

// MFetchRecord is one completed aggregation fetch.
type MFetchRecord struct {
	Sequence   uint64    `json:"sequence"`
	Trigger    string    `json:"trigger"` // "scheduled" or "manual"
	Outcome    string    `json:"outcome"` // "rendered", "stale", "error"
	Message    string    `json:"message,omitempty"`
	Orders     int       `json:"orders"`
	Agents     int       `json:"agents"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// MActionRecord is one confirmed state-changing action and its result.
type MActionRecord struct {
	ID        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	EntityID  int64      `json:"entity_id"`
	Value     string     `json:"value"`
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
