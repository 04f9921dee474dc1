package models

import "time"

// TaskStatus is the state of an externally executed sync or extraction task.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the task will not change again.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// SyncTask mirrors the CMS task record. Only displayed here, never mutated.
type SyncTask struct {
	ID              int64      `json:"id"`
	URL             string     `json:"url,omitempty"`
	SourceType      string     `json:"source_type,omitempty"`
	Status          TaskStatus `json:"status"`
	EventsExtracted int        `json:"events_extracted"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	Logs            string     `json:"logs,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
