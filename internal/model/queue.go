package model

import "time"

// QueueKind tags the payload shape of a sync queue item.
type QueueKind string

// KindAttendanceSubmission is the only payload kind.
const KindAttendanceSubmission QueueKind = "attendance-submission"

// SyncQueueItem is a locally queued submission awaiting delivery.
// Only Synced ever changes after insert.
type SyncQueueItem struct {
	ID         int64
	Kind       QueueKind
	Payload    Submission
	EnqueuedAt time.Time
	Synced     bool
}

// Outcomes of a device-side submission.
const (
	OutcomeSynced = "synced"
	OutcomeQueued = "queued"
)

// SubmitResult is what the device API reports for one marking attempt.
type SubmitResult struct {
	Outcome string             `json:"outcome"`
	QueueID int64              `json:"queue_id,omitempty"`
	Summary *AttendanceSummary `json:"summary,omitempty"`
	Message string             `json:"message,omitempty"`
}

// SyncStatus backs the pending badge and syncing indicator.
type SyncStatus struct {
	Online       bool       `json:"online"`
	State        string     `json:"state"`
	Syncing      bool       `json:"syncing"`
	PendingCount int        `json:"pending_count"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	LastSent     int        `json:"last_sent"`
	LastFailed   int        `json:"last_failed"`
}

// ConnectivityRequest is pushed by the platform shell on network changes.
type ConnectivityRequest struct {
	Online bool `json:"online"`
}
