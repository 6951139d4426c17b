package models

import "time"

type Health struct {
	OK        bool      `json:"ok"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// SlotStatus is the operations view of one cache slot.
type SlotStatus struct {
	Kind         Kind              `json:"kind"`
	State        string            `json:"state"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
	AgeSeconds   float64           `json:"age_seconds"`
	Stale        bool              `json:"stale"`
	LastError    string            `json:"last_error,omitempty"`
	LastErrorAt  *time.Time        `json:"last_error_at,omitempty"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
}

type Status struct {
	Slots       []SlotStatus `json:"slots"`
	Subscribers int          `json:"subscribers"`
	Strategy    string       `json:"strategy"`
	Timestamp   time.Time    `json:"timestamp"`
}

// NewsBatch is one push to stream subscribers.
type NewsBatch struct {
	Items []NewsItem `json:"items"`
	At    time.Time  `json:"at"`
}
