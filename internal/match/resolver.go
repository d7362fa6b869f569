package match

import (
	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
)

// Resolved pairs a matched catalog entry with the selection that produced it.
type Resolved struct {
	Selection domain.Selection
	Entry     domain.CatalogEntry
}

// Resolver matches selections against a candidate pool. It holds no state
// between calls and is safe for concurrent use.
type Resolver struct {
	logger    *logger.Logger
	threshold float64
}

func NewResolver(log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		logger:    log.WithComponent("resolver"),
		threshold: constants.FuzzThreshold,
	}
}

// WithThreshold returns a copy of r that accepts scores at or above t.
func (r *Resolver) WithThreshold(t float64) *Resolver {
	cp := *r
	cp.threshold = t
	return &cp
}

type normalizedEntry struct {
	title  string
	artist string
}

func prepare(pool []domain.CatalogEntry) []normalizedEntry {
	out := make([]normalizedEntry, len(pool))
	for i, e := range pool {
		out[i] = normalizedEntry{title: Normalize(e.Title), artist: Normalize(e.Artist)}
	}
	return out
}

// Resolve returns the first entry in pool order whose title and artist both
// score at or above the threshold. Entries whose ID is in exclude are skipped.
// Neither pool nor exclude is modified.
func (r *Resolver) Resolve(artist, title string, pool []domain.CatalogEntry, exclude map[string]struct{}) (domain.CatalogEntry, bool) {
	return r.resolve(artist, title, pool, prepare(pool), exclude)
}

func (r *Resolver) resolve(artist, title string, pool []domain.CatalogEntry, norm []normalizedEntry, exclude map[string]struct{}) (domain.CatalogEntry, bool) {
	wantTitle := Normalize(title)

	variants := ExpandArtist(artist)
	wantArtists := make([]string, len(variants))
	for i, v := range variants {
		wantArtists[i] = Normalize(v)
	}

	for i, entry := range pool {
		if _, skip := exclude[entry.ID]; skip {
			continue
		}
		if Ratio(wantTitle, norm[i].title) < r.threshold {
			continue
		}
		for _, a := range wantArtists {
			if Ratio(a, norm[i].artist) >= r.threshold {
				return entry, true
			}
		}
	}
	return domain.CatalogEntry{}, false
}

// ResolveAll resolves selections in order, growing a private copy of exclude
// with every match so no entry is returned twice. It stops once max entries
// have matched; max <= 0 means no cap.
func (r *Resolver) ResolveAll(selections []domain.Selection, pool []domain.CatalogEntry, exclude map[string]struct{}, max int) []Resolved {
	used := make(map[string]struct{}, len(exclude)+len(selections))
	for id := range exclude {
		used[id] = struct{}{}
	}

	norm := prepare(pool)
	var out []Resolved
	for _, sel := range selections {
		if max > 0 && len(out) >= max {
			break
		}
		entry, ok := r.resolve(sel.Artist, sel.Title, pool, norm, used)
		if !ok {
			r.logger.Debug("No match for selection", "artist", sel.Artist, "title", sel.Title)
			continue
		}
		used[entry.ID] = struct{}{}
		out = append(out, Resolved{Selection: sel, Entry: entry})
	}

	r.logger.Info("Resolved selections", "requested", len(selections), "matched", len(out), "pool", len(pool))
	return out
}
