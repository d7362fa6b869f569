package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CatalogEntry is one canonical track held in the library cache.
type CatalogEntry struct {
	ID         string      `json:"id" db:"id"`
	Title      string      `json:"title" db:"title"`
	Artist     string      `json:"artist" db:"artist"`
	Album      string      `json:"album" db:"album"`
	DurationMS int64       `json:"duration_ms" db:"duration_ms"`
	Year       int         `json:"year,omitempty" db:"year"`
	Genres     StringSlice `json:"genres" db:"genres"`
	UserRating *int        `json:"user_rating,omitempty" db:"user_rating"`
	IsLive     bool        `json:"is_live" db:"is_live"`
}

// DurationFormatted renders the duration as M:SS.
func (e CatalogEntry) DurationFormatted() string {
	minutes := e.DurationMS / 60000
	seconds := (e.DurationMS % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// SyncState is the singleton record describing the last completed sync.
type SyncState struct {
	SourceIdentity     string     `json:"source_identity" db:"source_identity"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`
	EntryCount         int        `json:"entry_count" db:"entry_count"`
	LastSyncDurationMS *int64     `json:"last_sync_duration_ms,omitempty" db:"last_sync_duration_ms"`
}

type SyncPhase string

const (
	SyncPhaseIdle            SyncPhase = ""
	SyncPhaseFetchingGroups  SyncPhase = "fetching-groups"
	SyncPhaseFetchingEntries SyncPhase = "fetching-entries"
	SyncPhaseProcessing      SyncPhase = "processing"
)

// SyncProgress is the in-memory view of a running sync. It is never persisted.
type SyncProgress struct {
	StartedAt *time.Time `json:"started_at,omitempty"`
	RunID     string     `json:"run_id,omitempty"`
	Phase     SyncPhase  `json:"phase,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Current   int        `json:"current"`
	Total     int        `json:"total"`
	IsRunning bool       `json:"is_running"`
}

// FilterSpec narrows the candidate pool. Genres and Decades are OR sets;
// the remaining fields combine with AND.
type FilterSpec struct {
	Genres      []string `json:"genres,omitempty"`
	Decades     []string `json:"decades,omitempty"`
	MinRating   int      `json:"min_rating"`
	ExcludeLive bool     `json:"exclude_live"`
	Limit       int      `json:"limit"`
}

// HasConstraints reports whether any genre, decade or rating constraint is set.
// Live exclusion and the limit do not count.
func (f FilterSpec) HasConstraints() bool {
	return len(f.Genres) > 0 || len(f.Decades) > 0 || f.MinRating > 0
}

func (f FilterSpec) Validate() error {
	if f.MinRating < 0 || f.MinRating > 10 {
		return fmt.Errorf("%w: min_rating must be between 0 and 10, got %d", ErrInvalidFilter, f.MinRating)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidFilter, f.Limit)
	}
	for _, d := range f.Decades {
		if _, err := ParseDecade(d); err != nil {
			return err
		}
	}
	return nil
}

// DecadeRange is a closed span of years.
type DecadeRange struct {
	Start int
	End   int
}

// ParseDecade converts "1990s" or "1990" to [1990, 1999]. Labels that are not
// a four digit year divisible by ten are rejected.
func ParseDecade(label string) (DecadeRange, error) {
	raw := strings.TrimSpace(label)
	raw = strings.TrimSuffix(raw, "s")
	if len(raw) != 4 {
		return DecadeRange{}, fmt.Errorf("%w: %q", ErrInvalidDecade, label)
	}
	start, err := strconv.Atoi(raw)
	if err != nil || start <= 0 || start%10 != 0 {
		return DecadeRange{}, fmt.Errorf("%w: %q", ErrInvalidDecade, label)
	}
	return DecadeRange{Start: start, End: start + 9}, nil
}

// Selection is one track proposed by the curator model. Album and Reason are
// optional.
type Selection struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// GroupMeta carries album-level metadata shared by all entries of a group.
type GroupMeta struct {
	Genres []string `json:"genres"`
	Year   int      `json:"year,omitempty"`
}

// RawEntry is a track as reported by the media source, before classification.
type RawEntry struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	GroupID    string
	DurationMS int64
	Year       int
	Genres     []string
	UserRating *int
}

// SearchQuery is the filtered request understood by the media source.
// Decades are start years (1990 for the 1990s).
type SearchQuery struct {
	Genres    []string
	Decades   []int
	MinRating int
	Random    bool
	Limit     int
}

// PlaylistResult reports what the media source did with a playlist request.
type PlaylistResult struct {
	ID           string `json:"playlist_id,omitempty"`
	URL          string `json:"playlist_url,omitempty"`
	AddedCount   int    `json:"tracks_added"`
	SkippedCount int    `json:"tracks_skipped"`
	Success      bool   `json:"success"`
}

// NamedCount pairs a genre or decade label with the number of cached entries.
type NamedCount struct {
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"count"`
}

// LibraryStats summarizes the cached library.
type LibraryStats struct {
	Genres       []NamedCount `json:"genres"`
	Decades      []NamedCount `json:"decades"`
	TotalEntries int          `json:"total_entries"`
}
