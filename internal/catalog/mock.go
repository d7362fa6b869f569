package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// MockSource is an in-memory Source for tests and offline runs.
type MockSource struct {
	Groups map[string]domain.GroupMeta

	// Hook, when set, runs at the start of AllEntries. Tests use it to block
	// or fail a sync midway.
	Hook func(ctx context.Context) error

	IdentityErr error
	SearchErr   error
	ID          string
	Entries     []domain.RawEntry

	mu        sync.Mutex
	searches  []domain.SearchQuery
	playlists map[string][]string
}

func NewMockSource(id string, entries []domain.RawEntry) *MockSource {
	return &MockSource{ID: id, Entries: entries, Groups: map[string]domain.GroupMeta{}}
}

func (m *MockSource) Identity(ctx context.Context) (string, error) {
	if m.IdentityErr != nil {
		return "", m.IdentityErr
	}
	return m.ID, nil
}

func (m *MockSource) AllGroups(ctx context.Context) (map[string]domain.GroupMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.GroupMeta, len(m.Groups))
	for k, v := range m.Groups {
		out[k] = v
	}
	return out, nil
}

func (m *MockSource) AllEntries(ctx context.Context) ([]domain.RawEntry, error) {
	if m.Hook != nil {
		if err := m.Hook(ctx); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RawEntry(nil), m.Entries...), nil
}

// SetEntries replaces the library contents.
func (m *MockSource) SetEntries(entries []domain.RawEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = entries
}

func (m *MockSource) Search(ctx context.Context, q domain.SearchQuery) ([]domain.RawEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, q)

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	var out []domain.RawEntry
	for _, e := range m.Entries {
		if matchesQuery(e, q) {
			out = append(out, e)
		}
	}
	if q.Random {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesQuery(e domain.RawEntry, q domain.SearchQuery) bool {
	if len(q.Genres) > 0 && !domain.StringSlice(e.Genres).OverlapsFold(q.Genres) {
		return false
	}
	if len(q.Decades) > 0 {
		in := false
		for _, d := range q.Decades {
			if e.Year >= d && e.Year <= d+9 {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	if q.MinRating > 0 && (e.UserRating == nil || *e.UserRating < q.MinRating) {
		return false
	}
	return true
}

func (m *MockSource) TotalEntries(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return 0, m.SearchErr
	}
	return len(m.Entries), nil
}

// Searches returns every query passed to Search so far.
func (m *MockSource) Searches() []domain.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SearchQuery(nil), m.searches...)
}

func (m *MockSource) CreatePlaylist(ctx context.Context, name string, ids []string) (domain.PlaylistResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	known := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		known[e.ID] = true
	}

	var added []string
	skipped := 0
	for _, id := range ids {
		if known[id] {
			added = append(added, id)
		} else {
			skipped++
		}
	}
	if len(added) == 0 {
		return domain.PlaylistResult{SkippedCount: skipped}, nil
	}

	if m.playlists == nil {
		m.playlists = map[string][]string{}
	}
	id := fmt.Sprintf("mock-%d", len(m.playlists)+1)
	m.playlists[id] = added

	return domain.PlaylistResult{
		Success:      true,
		ID:           id,
		URL:          "mock://playlist/" + id,
		AddedCount:   len(added),
		SkippedCount: skipped,
	}, nil
}

var (
	_ Source       = (*MockSource)(nil)
	_ TotalCounter = (*MockSource)(nil)
)
