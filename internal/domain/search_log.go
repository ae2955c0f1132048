package domain

import "time"

// SearchLog records one similarity search for later evaluation.
type SearchLog struct {
	ID          string
	UserID      string
	Query       string
	ResultCount int
	Fallback    bool
	DurationMs  int64
	CreatedAt   time.Time
}
