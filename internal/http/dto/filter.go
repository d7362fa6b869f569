package dto

import (
	"strings"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// FilterRequest is the body of a filter preview.
type FilterRequest struct {
	Genres      []string `json:"genres"`
	Decades     []string `json:"decades"`
	MinRating   int      `json:"min_rating"`
	ExcludeLive bool     `json:"exclude_live"`
	Limit       int      `json:"limit"`
	// PreferCache defaults to true when omitted.
	PreferCache *bool `json:"prefer_cache,omitempty"`
}

func (r *FilterRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateGenres(r.Genres)...)
	errs = append(errs, validateDecades(r.Decades)...)
	errs = append(errs, validateMinRating(r.MinRating)...)
	errs = append(errs, validateLimit(r.Limit)...)
	return errs
}

func (r *FilterRequest) ToSpec() domain.FilterSpec {
	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		genres = append(genres, strings.TrimSpace(g))
	}
	return domain.FilterSpec{
		Genres:      genres,
		Decades:     r.Decades,
		MinRating:   r.MinRating,
		ExcludeLive: r.ExcludeLive,
		Limit:       r.Limit,
	}
}

func (r *FilterRequest) UseCache() bool {
	return r.PreferCache == nil || *r.PreferCache
}

// FilterPreview reports how many entries a filter matches.
type FilterPreview struct {
	MatchingEntries int  `json:"matching_tracks"`
	FromCache       bool `json:"from_cache"`
}
