package domain

import (
	"errors"
	"testing"
)

func TestParseDecade(t *testing.T) {
	tests := []struct {
		label   string
		start   int
		end     int
		wantErr bool
	}{
		{"1990s", 1990, 1999, false},
		{"1990", 1990, 1999, false},
		{" 2000s ", 2000, 2009, false},
		{"1995", 0, 0, true},
		{"90s", 0, 0, true},
		{"nineties", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseDecade(tt.label)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDecade) {
					t.Fatalf("expected ErrInvalidDecade, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Start != tt.start || got.End != tt.end {
				t.Errorf("ParseDecade(%q) = [%d, %d], want [%d, %d]", tt.label, got.Start, got.End, tt.start, tt.end)
			}
		})
	}
}

func TestFilterSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr error
	}{
		{"empty", FilterSpec{}, nil},
		{"full", FilterSpec{Genres: []string{"Rock"}, Decades: []string{"1990s"}, MinRating: 8, Limit: 10}, nil},
		{"rating too high", FilterSpec{MinRating: 11}, ErrInvalidFilter},
		{"negative limit", FilterSpec{Limit: -1}, ErrInvalidFilter},
		{"bad decade", FilterSpec{Decades: []string{"1990s", "199x"}}, ErrInvalidDecade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFilterSpecHasConstraints(t *testing.T) {
	if (FilterSpec{ExcludeLive: true, Limit: 50}).HasConstraints() {
		t.Error("exclude_live and limit alone should not count as constraints")
	}
	if !(FilterSpec{MinRating: 6}).HasConstraints() {
		t.Error("min_rating should count as a constraint")
	}
	if !(FilterSpec{Genres: []string{"Jazz"}}).HasConstraints() {
		t.Error("genres should count as a constraint")
	}
}

func TestCatalogEntryDurationFormatted(t *testing.T) {
	e := CatalogEntry{DurationMS: 245000}
	if got := e.DurationFormatted(); got != "4:05" {
		t.Errorf("DurationFormatted() = %q, want %q", got, "4:05")
	}
}
