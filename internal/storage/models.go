package storage

import (
	"time"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
)

// Snapshot is one published refresh cycle.
type Snapshot struct {
	Bucket      time.Time            `json:"bucket"`
	Dashboard   aggregator.Dashboard `json:"dashboard"`
	Countdown   countdown.Snapshot   `json:"countdown"`
	PublishedAt time.Time            `json:"published_at"`
}

// DigestRecord captures a sent daily digest for de-duplication.
type DigestRecord struct {
	TermDay  int       `json:"term_day"`
	Bucket   time.Time `json:"bucket"`
	Degraded bool      `json:"degraded"`
	SentAt   time.Time `json:"sent_at"`
}
