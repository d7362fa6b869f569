package dto

import (
	"time"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// LibraryStatus combines the persisted sync state with the live progress.
type LibraryStatus struct {
	SourceIdentity     string              `json:"source_identity,omitempty"`
	LastSyncedAt       *time.Time          `json:"last_synced_at,omitempty"`
	EntryCount         int                 `json:"track_count"`
	LastSyncDurationMS *int64              `json:"sync_duration_ms,omitempty"`
	IsStale            bool                `json:"is_stale"`
	Sync               domain.SyncProgress `json:"sync_progress"`
	Error              string              `json:"error,omitempty"`
}

func NewLibraryStatus(state domain.SyncState, stale bool, progress domain.SyncProgress) LibraryStatus {
	return LibraryStatus{
		SourceIdentity:     state.SourceIdentity,
		LastSyncedAt:       state.LastSyncedAt,
		EntryCount:         state.EntryCount,
		LastSyncDurationMS: state.LastSyncDurationMS,
		IsStale:            stale,
		Sync:               progress,
		Error:              progress.LastError,
	}
}

// SyncAccepted is returned when a sync is started or rejected.
type SyncAccepted struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}
