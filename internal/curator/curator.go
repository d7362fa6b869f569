// Package curator asks a language model to pick tracks from a filtered pool
// and maps its picks back onto catalog entries.
package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
	"github.com/cesargomez89/plexsage/internal/match"
)

var ErrNoCandidates = errors.New("no tracks match the selected filters")

const systemPrompt = `You are a music curator creating a playlist from a user's music library.

You will be given a description of what the user wants and a numbered list of tracks available in their library.

Select tracks that best match the request. For each track include a one sentence reason explaining why it fits.

Guidelines:
- Fit the mood, era and style of the request
- Vary the selection; avoid many tracks from the same artist or album
- If a seed track is given, do not include it

Return ONLY a JSON array like:
[
  {"artist": "Artist Name", "album": "Album Name", "title": "Track Title", "reason": "Why this track fits."}
]`

// Pool is where candidate entries come from.
type Pool interface {
	Evaluate(ctx context.Context, spec domain.FilterSpec, preferCache bool) ([]domain.CatalogEntry, error)
}

// Request describes one curation.
type Request struct {
	Prompt     string
	Seed       *domain.CatalogEntry
	Dimensions []string
	Notes      string
	Filter     domain.FilterSpec
	TrackCount int
}

// Result holds the matched entries in model order.
type Result struct {
	Entries    []domain.CatalogEntry
	Reasons    map[string]string
	Extraction Extraction
	PoolSize   int
	Usage      Completion
}

type Curator struct {
	pool          Pool
	completer     Completer
	resolver      *match.Resolver
	maxTracksToAI int
	logger        *logger.Logger
}

// New builds a curator. maxTracksToAI bounds the pool sent to the model;
// 0 means the UnlimitedPoolSize ceiling.
func New(pool Pool, completer Completer, resolver *match.Resolver, maxTracksToAI int, log *logger.Logger) *Curator {
	if log == nil {
		log = logger.Default()
	}
	if resolver == nil {
		resolver = match.NewResolver(log)
	}
	return &Curator{
		pool:          pool,
		completer:     completer,
		resolver:      resolver,
		maxTracksToAI: maxTracksToAI,
		logger:        log.WithComponent("curator"),
	}
}

func (c *Curator) poolLimit() int {
	if c.maxTracksToAI > 0 {
		return c.maxTracksToAI
	}
	return constants.UnlimitedPoolSize
}

// Curate filters the library, asks the model for TrackCount picks and
// resolves them against the pool. The seed entry is never returned.
func (c *Curator) Curate(ctx context.Context, req Request) (Result, error) {
	var res Result
	if c.completer == nil {
		return res, fmt.Errorf("curator: completer: %w", domain.ErrNotConfigured)
	}
	if req.TrackCount <= 0 {
		return res, fmt.Errorf("%w: track count must be positive, got %d", domain.ErrInvalidFilter, req.TrackCount)
	}

	spec := req.Filter
	spec.Limit = c.poolLimit()
	candidates, err := c.pool.Evaluate(ctx, spec, true)
	if err != nil {
		return res, fmt.Errorf("failed to build candidate pool: %w", err)
	}
	if len(candidates) == 0 {
		return res, ErrNoCandidates
	}
	res.PoolSize = len(candidates)

	prompt := BuildPrompt(req, candidates)
	c.logger.Info("Calling model", "pool", len(candidates), "prompt_chars", len(prompt))

	completion, err := c.completer.Complete(ctx, prompt, systemPrompt)
	if err != nil {
		return res, fmt.Errorf("failed to complete prompt: %w", err)
	}
	res.Usage = completion
	res.Usage.Content = ""

	ext, err := ExtractSelections(completion.Content)
	if err != nil {
		return res, err
	}
	res.Extraction = ext
	if ext.Skipped > 0 {
		c.logger.Warn("Dropped incomplete selections", "skipped", ext.Skipped)
	}

	exclude := map[string]struct{}{}
	if req.Seed != nil {
		exclude[req.Seed.ID] = struct{}{}
	}

	resolved := c.resolver.ResolveAll(ext.Selections, candidates, exclude, req.TrackCount)
	res.Entries = make([]domain.CatalogEntry, 0, len(resolved))
	res.Reasons = make(map[string]string, len(resolved))
	for _, r := range resolved {
		res.Entries = append(res.Entries, r.Entry)
		if r.Selection.Reason != "" {
			res.Reasons[r.Entry.ID] = r.Selection.Reason
		}
	}

	if len(resolved) < len(ext.Selections) {
		c.logUnmatched(ext.Selections, resolved)
	}
	return res, nil
}

func (c *Curator) logUnmatched(selections []domain.Selection, resolved []match.Resolved) {
	hit := make(map[domain.Selection]struct{}, len(resolved))
	for _, r := range resolved {
		hit[r.Selection] = struct{}{}
	}
	for _, s := range selections {
		if _, ok := hit[s]; !ok {
			c.logger.WithSelection(s.Artist, s.Title).Debug("Selection not in pool")
		}
	}
}

// BuildPrompt renders the user request and the numbered candidate list.
func BuildPrompt(req Request, candidates []domain.CatalogEntry) string {
	var parts []string
	if req.Prompt != "" {
		parts = append(parts, "User's request: "+req.Prompt)
	}
	if req.Seed != nil {
		parts = append(parts, fmt.Sprintf("Seed track: %s by %s (from %s, %s)",
			req.Seed.Title, req.Seed.Artist, req.Seed.Album, yearLabel(req.Seed.Year)))
		if len(req.Dimensions) > 0 {
			parts = append(parts, "Explore these dimensions: "+strings.Join(req.Dimensions, ", "))
		}
	}
	if req.Notes != "" {
		parts = append(parts, "Additional notes: "+req.Notes)
	}

	var list strings.Builder
	for i, e := range candidates {
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "%d. %s - %s (%s, %s)", i+1, e.Artist, e.Title, e.Album, yearLabel(e.Year))
	}
	parts = append(parts, fmt.Sprintf("\nSelect %d tracks from this library:\n%s", req.TrackCount, list.String()))

	return strings.Join(parts, "\n\n")
}

func yearLabel(year int) string {
	if year == 0 {
		return "Unknown year"
	}
	return fmt.Sprint(year)
}
