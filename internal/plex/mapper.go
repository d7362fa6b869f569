package plex

import (
	"math"

	"github.com/cesargomez89/plexsage/internal/domain"
)

func tags(in []Tag) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t.Tag != "" {
			out = append(out, t.Tag)
		}
	}
	return out
}

// MapGroups converts album metadata to group metadata keyed by rating key
func MapGroups(albums []Metadata) map[string]domain.GroupMeta {
	groups := make(map[string]domain.GroupMeta, len(albums))
	for _, a := range albums {
		groups[a.RatingKey] = domain.GroupMeta{
			Genres: tags(a.Genre),
			Year:   a.Year,
		}
	}
	return groups
}

// MapEntries converts track metadata to raw entries
func MapEntries(tracks []Metadata) []domain.RawEntry {
	out := make([]domain.RawEntry, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, mapEntry(t))
	}
	return out
}

func mapEntry(t Metadata) domain.RawEntry {
	year := t.ParentYear
	if year == 0 {
		year = t.Year
	}

	var rating *int
	if t.UserRating != nil {
		r := int(math.Round(*t.UserRating))
		rating = &r
	}

	return domain.RawEntry{
		ID:         t.RatingKey,
		Title:      t.Title,
		Artist:     t.GrandparentTitle,
		Album:      t.ParentTitle,
		GroupID:    t.ParentRatingKey,
		DurationMS: t.Duration,
		Year:       year,
		Genres:     tags(t.Genre),
		UserRating: rating,
	}
}
