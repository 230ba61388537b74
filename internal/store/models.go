package store

import "time"

// Status represents the lifecycle of a ledger item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusExtracting Status = "extracting"
	StatusExtracted  Status = "extracted"
	StatusEnriching  Status = "enriching"
	StatusPersisting Status = "persisting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusExtracted,
	StatusEnriching,
	StatusPersisting,
	StatusCompleted,
	StatusFailed,
}

// processingStatuses are transient states no item should survive a restart
// in; startup recovery resets them to pending.
var processingStatuses = []Status{
	StatusExtracting,
	StatusEnriching,
	StatusPersisting,
}

// ParseStatus validates a status string from the CLI.
func ParseStatus(value string) (Status, bool) {
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// Item is one manuscript working through the harvest lifecycle.
type Item struct {
	ID           int64
	JournalCode  string
	ManuscriptID string
	Category     string
	Locator      string
	Status       Status
	Attempts     int
	Partial      bool
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}
