package catalog

import (
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/livedetect"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// BuildEntry converts a raw source entry into a catalog entry. Year and genres
// come from the entry's group when groups has it, and from the raw entry
// otherwise.
func BuildEntry(raw domain.RawEntry, groups map[string]domain.GroupMeta) domain.CatalogEntry {
	year := raw.Year
	genres := raw.Genres
	if meta, ok := groups[raw.GroupID]; ok {
		if meta.Year > 0 {
			year = meta.Year
		}
		if len(meta.Genres) > 0 {
			genres = meta.Genres
		}
	}

	artist := raw.Artist
	if artist == "" {
		artist = unknownArtist
	}
	album := raw.Album
	if album == "" {
		album = unknownAlbum
	}

	return domain.CatalogEntry{
		ID:         raw.ID,
		Title:      raw.Title,
		Artist:     artist,
		Album:      album,
		DurationMS: raw.DurationMS,
		Year:       year,
		Genres:     append(domain.StringSlice(nil), genres...),
		UserRating: raw.UserRating,
		IsLive:     livedetect.IsLive(raw.Title, raw.Album),
	}
}
