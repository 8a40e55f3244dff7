package testplan

import "time"

// HistoryEntry records one generation attempt.
type HistoryEntry struct {
	ID        string        `json:"id"`
	IssueKey  string        `json:"story_key"`
	CreatedAt time.Time     `json:"created_at"`
	TestCount int           `json:"test_count"`
	Status    string        `json:"status"` // "completed" or "failed"
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
	UploadIDs []string      `json:"zephyr_ids,omitempty"`
}

// History statuses.
const (
	HistoryCompleted = "completed"
	HistoryFailed    = "failed"
)

// History persists generation history.
type History interface {
	Append(entry HistoryEntry) error
	Load() ([]HistoryEntry, error)
}
