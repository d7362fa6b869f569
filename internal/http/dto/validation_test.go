package dto

import (
	"testing"
	"time"

	"github.com/cesargomez89/plexsage/internal/domain"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "limit", Message: "must not be negative"}
	if err.Error() != "limit: must not be negative" {
		t.Errorf("Error() = %q, want %q", err.Error(), "limit: must not be negative")
	}
}

func TestValidationError_ToMap(t *testing.T) {
	err := ValidationError{Field: "limit", Message: "must not be negative"}
	m := err.ToMap()
	if m["limit"] != "must not be negative" {
		t.Errorf("ToMap() = %v, want {limit: must not be negative}", m)
	}
}

func TestToMap(t *testing.T) {
	errs := []ValidationError{
		{Field: "decades", Message: "invalid"},
		{Field: "min_rating", Message: "must be between 0 and 10"},
	}
	m := ToMap(errs)
	if len(m) != 2 {
		t.Errorf("ToMap() returned %d items, want 2", len(m))
	}
	if m["min_rating"] != "must be between 0 and 10" {
		t.Errorf("ToMap()[min_rating] = %q", m["min_rating"])
	}
}

func TestToResponse(t *testing.T) {
	errs := []ValidationError{
		{Field: "decades", Message: "invalid"},
		{Field: "limit", Message: "must not be negative"},
	}
	resp := ToResponse(errs)
	expected := "decades: invalid; limit: must not be negative"
	if resp != expected {
		t.Errorf("ToResponse() = %q, want %q", resp, expected)
	}
}

func TestFilterRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      FilterRequest
		wantErrs int
	}{
		{"empty", FilterRequest{}, 0},
		{"valid", FilterRequest{Genres: []string{"Rock"}, Decades: []string{"1990s", "2000"}, MinRating: 8, Limit: 50}, 0},
		{"blank genre", FilterRequest{Genres: []string{"Rock", " "}}, 1},
		{"bad decades", FilterRequest{Decades: []string{"199x", "1995", "80s"}}, 3},
		{"rating too high", FilterRequest{MinRating: 11}, 1},
		{"negative rating", FilterRequest{MinRating: -1}, 1},
		{"negative limit", FilterRequest{Limit: -5}, 1},
		{"everything wrong", FilterRequest{Genres: []string{""}, Decades: []string{"x"}, MinRating: 20, Limit: -1}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if len(errs) != tt.wantErrs {
				t.Errorf("Validate() returned %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
		})
	}
}

func TestFilterRequest_ToSpec(t *testing.T) {
	req := FilterRequest{Genres: []string{" Jazz "}, Decades: []string{"1960s"}, MinRating: 6, ExcludeLive: true, Limit: 10}
	spec := req.ToSpec()
	if spec.Genres[0] != "Jazz" || spec.Decades[0] != "1960s" || spec.MinRating != 6 || !spec.ExcludeLive || spec.Limit != 10 {
		t.Errorf("ToSpec() = %+v", spec)
	}
	if err := spec.Validate(); err != nil {
		t.Errorf("spec from a valid request failed validation: %v", err)
	}
}

func TestFilterRequest_UseCache(t *testing.T) {
	no := false
	if !(&FilterRequest{}).UseCache() {
		t.Error("omitted prefer_cache should default to true")
	}
	if (&FilterRequest{PreferCache: &no}).UseCache() {
		t.Error("prefer_cache=false should be honored")
	}
}

func TestNewLibraryStatus(t *testing.T) {
	now := time.Now()
	took := int64(1500)
	state := domain.SyncState{SourceIdentity: "m1", LastSyncedAt: &now, EntryCount: 42, LastSyncDurationMS: &took}
	progress := domain.SyncProgress{IsRunning: true, Phase: domain.SyncPhaseProcessing, Current: 10, Total: 42, LastError: "earlier failure"}

	got := NewLibraryStatus(state, true, progress)
	if got.EntryCount != 42 || got.SourceIdentity != "m1" || !got.IsStale {
		t.Errorf("status = %+v", got)
	}
	if got.Sync.Current != 10 || got.Error != "earlier failure" {
		t.Errorf("progress = %+v, error = %q", got.Sync, got.Error)
	}
}
