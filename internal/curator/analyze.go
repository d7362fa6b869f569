package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
)

const promptAnalysisSystem = `You are a music expert helping to create playlists from a user's music library.

Analyze the user's prompt and suggest filters (genres and decades) that would help find matching tracks.

Return a JSON object with:
- genres: array of genre names taken from the available genres
- decades: array of decade strings taken from the available decades, e.g. ["1990s", "2000s"]
- reasoning: a brief explanation of the choice

Consider mood, era references, genre keywords and artist style hints.

Return ONLY valid JSON, no markdown formatting.`

const trackAnalysisSystem = `You are a music expert analyzing a song to identify its distinctive characteristics.

Given a track's title, artist, album and year, identify 5-7 specific musical dimensions that make it unique. They will be used to explore similar music.

Each dimension has:
- id: a short identifier, e.g. "mood", "era", "instrumentation"
- label: a specific label, e.g. "90s British alternative rock with Britpop influences" rather than "the genre"
- description: a brief explanation

Return a JSON object like:
{"dimensions": [{"id": "mood", "label": "The melancholy, introspective mood", "description": "..."}]}

Return ONLY valid JSON, no markdown formatting.`

// maxPromptGenres bounds the genre list shown to the model.
const maxPromptGenres = 30

// StatsProvider lists the genres and decades present in the library.
type StatsProvider interface {
	LibraryStats(ctx context.Context) (domain.LibraryStats, error)
}

// PromptAnalysis holds filter suggestions for a free-text request. Suggested
// names always use the library's own spelling.
type PromptAnalysis struct {
	SuggestedGenres  []string
	SuggestedDecades []string
	Available        domain.LibraryStats
	Reasoning        string
	Usage            Completion
}

// Filter turns the suggestions into a filter spec.
func (a PromptAnalysis) Filter() domain.FilterSpec {
	return domain.FilterSpec{
		Genres:  append([]string(nil), a.SuggestedGenres...),
		Decades: append([]string(nil), a.SuggestedDecades...),
	}
}

// Dimension is one distinctive trait of a seed track.
type Dimension struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type TrackAnalysis struct {
	Entry      domain.CatalogEntry
	Dimensions []Dimension
	Usage      Completion
}

// Labels returns the labels of the dimensions whose id is in ids, in analysis
// order. An empty ids selects every dimension.
func (a TrackAnalysis) Labels(ids ...string) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.ToLower(strings.TrimSpace(id))] = true
	}
	var out []string
	for _, d := range a.Dimensions {
		if len(want) == 0 || want[strings.ToLower(d.ID)] {
			out = append(out, d.Label)
		}
	}
	return out
}

type Analyzer struct {
	stats     StatsProvider
	completer Completer
	logger    *logger.Logger
}

func NewAnalyzer(stats StatsProvider, completer Completer, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Default()
	}
	return &Analyzer{stats: stats, completer: completer, logger: log.WithComponent("analyzer")}
}

// AnalyzePrompt asks the model which genres and decades fit prompt. Names the
// library does not have are dropped.
func (a *Analyzer) AnalyzePrompt(ctx context.Context, prompt string) (PromptAnalysis, error) {
	var res PromptAnalysis
	if a.completer == nil {
		return res, fmt.Errorf("analyzer: completer: %w", domain.ErrNotConfigured)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return res, fmt.Errorf("%w: prompt is empty", domain.ErrInvalidFilter)
	}

	stats, err := a.stats.LibraryStats(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load library stats: %w", err)
	}
	res.Available = stats

	completion, err := a.completer.Complete(ctx, buildPromptAnalysis(prompt, stats), promptAnalysisSystem)
	if err != nil {
		return res, fmt.Errorf("failed to complete prompt analysis: %w", err)
	}
	res.Usage = completion
	res.Usage.Content = ""

	raw, err := payloadJSON(completion.Content)
	if err != nil {
		return res, err
	}
	var payload struct {
		Genres    []string `json:"genres"`
		Decades   []string `json:"decades"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return res, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	res.SuggestedGenres = knownGenres(payload.Genres, stats.Genres)
	res.SuggestedDecades = knownDecades(payload.Decades, stats.Decades)
	res.Reasoning = strings.TrimSpace(payload.Reasoning)

	if dropped := len(payload.Genres) + len(payload.Decades) - len(res.SuggestedGenres) - len(res.SuggestedDecades); dropped > 0 {
		a.logger.Debug("Dropped suggestions missing from library", "dropped", dropped)
	}
	return res, nil
}

// AnalyzeTrack asks the model for the dimensions that characterize entry.
func (a *Analyzer) AnalyzeTrack(ctx context.Context, entry domain.CatalogEntry) (TrackAnalysis, error) {
	res := TrackAnalysis{Entry: entry}
	if a.completer == nil {
		return res, fmt.Errorf("analyzer: completer: %w", domain.ErrNotConfigured)
	}

	completion, err := a.completer.Complete(ctx, buildTrackAnalysis(entry), trackAnalysisSystem)
	if err != nil {
		return res, fmt.Errorf("failed to complete track analysis: %w", err)
	}
	res.Usage = completion
	res.Usage.Content = ""

	raw, err := payloadJSON(completion.Content)
	if err != nil {
		return res, err
	}
	var payload struct {
		Dimensions []Dimension `json:"dimensions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return res, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for i, d := range payload.Dimensions {
		d.ID = strings.TrimSpace(d.ID)
		d.Label = strings.TrimSpace(d.Label)
		if d.ID == "" {
			d.ID = fmt.Sprintf("dim_%d", i)
		}
		if d.Label == "" {
			d.Label = "Unknown dimension"
		}
		res.Dimensions = append(res.Dimensions, d)
	}
	return res, nil
}

func buildPromptAnalysis(prompt string, stats domain.LibraryStats) string {
	genres := stats.Genres
	if len(genres) > maxPromptGenres {
		genres = genres[:maxPromptGenres]
	}
	return fmt.Sprintf("User's playlist request: %q\n\nAvailable genres in their library:\n%s\n\nAvailable decades in their library:\n%s\n\nSuggest genres and decades from the available options that best match the request.",
		prompt, joinCounts(genres), joinCounts(stats.Decades))
}

func joinCounts(counts []domain.NamedCount) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", c.Name, c.Count))
		} else {
			parts = append(parts, c.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func buildTrackAnalysis(e domain.CatalogEntry) string {
	genres := "Unknown"
	if len(e.Genres) > 0 {
		genres = strings.Join(e.Genres, ", ")
	}
	year := "Unknown"
	if e.Year > 0 {
		year = fmt.Sprint(e.Year)
	}
	return fmt.Sprintf("Analyze this track:\nTitle: %s\nArtist: %s\nAlbum: %s\nYear: %s\nGenres: %s\n\nIdentify 5-7 specific musical dimensions that make this track distinctive.",
		e.Title, e.Artist, e.Album, year, genres)
}

func knownGenres(suggested []string, available []domain.NamedCount) []string {
	byName := make(map[string]string, len(available))
	for _, g := range available {
		byName[strings.ToLower(g.Name)] = g.Name
	}
	return pick(suggested, func(s string) (string, bool) {
		name, ok := byName[strings.ToLower(strings.TrimSpace(s))]
		return name, ok
	})
}

// knownDecades matches by decade start, so "1990" and "1990s" are the same.
func knownDecades(suggested []string, available []domain.NamedCount) []string {
	byStart := make(map[int]string, len(available))
	for _, d := range available {
		if r, err := domain.ParseDecade(d.Name); err == nil {
			byStart[r.Start] = d.Name
		}
	}
	return pick(suggested, func(s string) (string, bool) {
		r, err := domain.ParseDecade(s)
		if err != nil {
			return "", false
		}
		name, ok := byStart[r.Start]
		return name, ok
	})
}

func pick(suggested []string, lookup func(string) (string, bool)) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range suggested {
		name, ok := lookup(s)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
