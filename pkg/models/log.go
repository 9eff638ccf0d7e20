package models

import "time"

// Event types
const (
	EventDownload = "download"
	EventBatch    = "batch"
)

// Event statuses
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventReady     = "ready"
	EventError     = "error"
)

// DownloadEvent reports the progress of a download or a batch item
type DownloadEvent struct {
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	FormatID  string    `json:"format_id,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
