package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
	"github.com/cesargomez89/plexsage/internal/store"
)

func setupStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rawEntries(prefix string, n int) []domain.RawEntry {
	out := make([]domain.RawEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.RawEntry{
			ID:     fmt.Sprintf("%s-%d", prefix, i),
			Title:  fmt.Sprintf("Song %d", i),
			Artist: "Artist",
			Album:  "Studio Album",
			Year:   1994,
			Genres: []string{"Rock"},
		})
	}
	return out
}

func seedCache(t *testing.T, db *store.DB, raw []domain.RawEntry) {
	t.Helper()
	entries := make([]domain.CatalogEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, BuildEntry(r, nil))
	}
	if _, err := db.FinishSync(context.Background(), "run-1", "server-1", entries, time.Second); err != nil {
		t.Fatalf("FinishSync failed: %v", err)
	}
}

func TestBuildEntry(t *testing.T) {
	raw := domain.RawEntry{
		ID:      "1",
		Title:   "Scarlet Begonias",
		Artist:  "Grateful Dead",
		Album:   "1977-05-08 Barton Hall",
		GroupID: "album-1",
		Year:    2011,
		Genres:  []string{"Reissue"},
	}

	t.Run("group metadata wins", func(t *testing.T) {
		groups := map[string]domain.GroupMeta{"album-1": {Year: 1977, Genres: []string{"Rock", "Jam"}}}
		e := BuildEntry(raw, groups)
		if e.Year != 1977 {
			t.Errorf("Year = %d, want 1977", e.Year)
		}
		if len(e.Genres) != 2 || e.Genres[0] != "Rock" {
			t.Errorf("Genres = %v", e.Genres)
		}
		if !e.IsLive {
			t.Error("dated album should be classified live")
		}
	})

	t.Run("falls back to raw metadata", func(t *testing.T) {
		e := BuildEntry(raw, map[string]domain.GroupMeta{})
		if e.Year != 2011 || len(e.Genres) != 1 {
			t.Errorf("got year %d genres %v", e.Year, e.Genres)
		}
	})

	t.Run("missing names", func(t *testing.T) {
		e := BuildEntry(domain.RawEntry{ID: "2", Title: "Untitled"}, nil)
		if e.Artist != unknownArtist || e.Album != unknownAlbum {
			t.Errorf("got artist %q album %q", e.Artist, e.Album)
		}
		if e.IsLive {
			t.Error("untitled entry should not be live")
		}
	})
}

func TestEvaluate_PrefersPopulatedCache(t *testing.T) {
	db := setupStore(t)
	seedCache(t, db, rawEntries("cached", 5))
	src := NewMockSource("server-1", rawEntries("live", 5))
	ev := NewEvaluator(db, src, logger.Discard())

	got, err := ev.Evaluate(context.Background(), domain.FilterSpec{Limit: 3}, true)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for _, e := range got {
		if e.ID[:6] != "cached" {
			t.Errorf("entry %s did not come from the cache", e.ID)
		}
	}
	if n := len(src.Searches()); n != 0 {
		t.Errorf("source searched %d times, want 0", n)
	}
}

func TestEvaluate_EmptyCacheUsesSource(t *testing.T) {
	db := setupStore(t)
	src := NewMockSource("server-1", rawEntries("live", 5))
	ev := NewEvaluator(db, src, logger.Discard())
	ctx := context.Background()

	got, err := ev.Evaluate(ctx, domain.FilterSpec{}, true)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d entries, want 5", len(got))
	}

	has, err := db.HasEntries(ctx)
	if err != nil {
		t.Fatalf("HasEntries failed: %v", err)
	}
	if has {
		t.Error("live results must not populate the cache")
	}
}

func TestEvaluate_PreferCacheFalse(t *testing.T) {
	db := setupStore(t)
	seedCache(t, db, rawEntries("cached", 5))
	src := NewMockSource("server-1", rawEntries("live", 2))
	ev := NewEvaluator(db, src, logger.Discard())

	got, err := ev.Evaluate(context.Background(), domain.FilterSpec{}, false)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2 from the source", len(got))
	}
}

func TestEvaluate_LiveOverfetchExcludesLive(t *testing.T) {
	raw := rawEntries("live", 10)
	for i := 0; i < 5; i++ {
		raw[i].Album = "Live at Leeds"
	}
	src := NewMockSource("server-1", raw)
	ev := NewEvaluator(nil, src, logger.Discard())

	got, err := ev.Evaluate(context.Background(), domain.FilterSpec{Limit: 4, ExcludeLive: true}, true)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(got) > 4 {
		t.Errorf("got %d entries, want at most 4", len(got))
	}
	for _, e := range got {
		if e.IsLive {
			t.Errorf("live entry %s returned", e.ID)
		}
	}

	searches := src.Searches()
	if len(searches) != 1 {
		t.Fatalf("expected 1 search, got %d", len(searches))
	}
	if !searches[0].Random || searches[0].Limit != 6 {
		t.Errorf("search = %+v, want random with limit 6", searches[0])
	}
}

func TestEvaluate_LiveQueryTranslation(t *testing.T) {
	src := NewMockSource("server-1", nil)
	ev := NewEvaluator(nil, src, logger.Discard())

	spec := domain.FilterSpec{Genres: []string{"Jazz"}, Decades: []string{"1960s", "1970"}, MinRating: 6}
	if _, err := ev.Evaluate(context.Background(), spec, false); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	q := src.Searches()[0]
	if q.Random || q.Limit != 0 {
		t.Errorf("unlimited query should not sample: %+v", q)
	}
	if len(q.Decades) != 2 || q.Decades[0] != 1960 || q.Decades[1] != 1970 {
		t.Errorf("Decades = %v", q.Decades)
	}
	if q.MinRating != 6 || q.Genres[0] != "Jazz" {
		t.Errorf("query = %+v", q)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid decade", func(t *testing.T) {
		ev := NewEvaluator(nil, NewMockSource("s", nil), logger.Discard())
		_, err := ev.Evaluate(ctx, domain.FilterSpec{Decades: []string{"nineties"}}, true)
		if !errors.Is(err, domain.ErrInvalidDecade) {
			t.Errorf("err = %v, want ErrInvalidDecade", err)
		}
	})

	t.Run("source failure propagates", func(t *testing.T) {
		src := NewMockSource("s", nil)
		src.SearchErr = domain.ErrSourceUnavailable
		ev := NewEvaluator(nil, src, logger.Discard())
		_, err := ev.Evaluate(ctx, domain.FilterSpec{}, true)
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Errorf("err = %v, want ErrSourceUnavailable", err)
		}
	})

	t.Run("no source", func(t *testing.T) {
		ev := NewEvaluator(setupStore(t), nil, logger.Discard())
		_, err := ev.Evaluate(ctx, domain.FilterSpec{}, true)
		if !errors.Is(err, domain.ErrNotConfigured) {
			t.Errorf("err = %v, want ErrNotConfigured", err)
		}
	})
}

func TestCount(t *testing.T) {
	ctx := context.Background()

	t.Run("cache answers", func(t *testing.T) {
		db := setupStore(t)
		seedCache(t, db, rawEntries("cached", 7))
		src := NewMockSource("s", rawEntries("live", 3))
		ev := NewEvaluator(db, src, logger.Discard())

		n, err := ev.Count(ctx, domain.FilterSpec{Limit: 2}, true)
		if err != nil || n != 7 {
			t.Errorf("Count = %d, %v; want 7", n, err)
		}
	})

	t.Run("source answers for an empty cache", func(t *testing.T) {
		db := setupStore(t)
		raw := rawEntries("live", 3)
		raw[0].Title = "Song (Live)"
		src := NewMockSource("s", raw)
		ev := NewEvaluator(db, src, logger.Discard())

		n, err := ev.Count(ctx, domain.FilterSpec{ExcludeLive: true}, true)
		if err != nil || n != 2 {
			t.Errorf("Count = %d, %v; want 2", n, err)
		}
	})
	t.Run("unconstrained source count skips the listing", func(t *testing.T) {
		db := setupStore(t)
		src := NewMockSource("s", rawEntries("live", 4))
		ev := NewEvaluator(db, src, logger.Discard())

		n, err := ev.Count(ctx, domain.FilterSpec{Limit: 2}, true)
		if err != nil || n != 4 {
			t.Errorf("Count = %d, %v; want 4", n, err)
		}
		if searches := src.Searches(); len(searches) != 0 {
			t.Errorf("searched %d times, want 0", len(searches))
		}

		n, err = ev.Count(ctx, domain.FilterSpec{MinRating: 1}, true)
		if err != nil || n != 0 {
			t.Errorf("rated Count = %d, %v; want 0", n, err)
		}
		if searches := src.Searches(); len(searches) != 1 {
			t.Errorf("searched %d times, want 1", len(searches))
		}
	})
}
