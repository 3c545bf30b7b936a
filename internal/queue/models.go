package queue

import "time"

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusEncoding    Status = "encoding"
	StatusUploading   Status = "uploading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// IsActive reports whether the status represents in-flight work.
func (s Status) IsActive() bool {
	switch s {
	case StatusQueued, StatusDownloading, StatusEncoding, StatusUploading:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ActiveStatuses lists the in-flight states in pipeline order.
func ActiveStatuses() []Status {
	return []Status{StatusQueued, StatusDownloading, StatusEncoding, StatusUploading}
}

// TerminalStatuses lists the final states.
func TerminalStatuses() []Status {
	return []Status{StatusCompleted, StatusFailed}
}

// Entry is one job in the durable queue, keyed by its source path.
type Entry struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	Status     Status    `json:"status"`
	Details    string    `json:"details,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Age returns the time since the entry was last updated.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.UpdatedAt)
}

// validTransitions maps each status to the statuses it may move to. Any
// active entry may additionally move to failed.
var validTransitions = map[Status][]Status{
	StatusQueued:      {StatusDownloading},
	StatusDownloading: {StatusEncoding},
	StatusEncoding:    {StatusUploading},
	StatusUploading:   {StatusCompleted},
}

func transitionAllowed(from, to Status) bool {
	if from.IsActive() && to == StatusFailed {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
