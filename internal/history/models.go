package history

import "time"

// Status is the terminal state of a recorded conversion.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one recorded conversion.
type Entry struct {
	ID          string
	RequestID   string
	Kind        string
	FileName    string
	Format      string
	Status      Status
	FailureKind string
	Message     string
	WordCount   int
	Language    string
	OutputBytes int64
	Duration    time.Duration
	CreatedAt   time.Time
}
