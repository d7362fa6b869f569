package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/store"
)

func testEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "plexsage.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("PLEX_URL", "http://127.0.0.1:1")
	t.Setenv("PLEX_TOKEN", "token")
	t.Setenv("PLEX_LIBRARY", "Music")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, dbPath string) {
	t.Helper()
	db, err := store.NewSQLiteDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	entries := []domain.CatalogEntry{
		{ID: "1", Title: "Teardrop", Artist: "Massive Attack", Album: "Mezzanine", Year: 1998, Genres: domain.StringSlice{"Trip Hop"}},
		{ID: "2", Title: "Roads", Artist: "Portishead", Album: "Dummy", Year: 1994, Genres: domain.StringSlice{"Trip Hop"}},
	}
	if _, err := db.FinishSync(context.Background(), "run-1", "machine-1", entries, 2*time.Second); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := run(t)
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, name := range []string{"serve", "sync", "status", "clear", "stats", "curate", "analyze"} {
		if !strings.Contains(out, name) {
			t.Errorf("help output missing %q", name)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	dbPath := testEnv(t)

	out, err := run(t, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "(never synced)") || !strings.Contains(out, "Stale:       true") {
		t.Errorf("empty status output:\n%s", out)
	}

	seed(t, dbPath)
	out, err = run(t, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "machine-1") || !strings.Contains(out, "Tracks:      2") || !strings.Contains(out, "Stale:       false") {
		t.Errorf("seeded status output:\n%s", out)
	}
}

func TestStatsAndClearCommands(t *testing.T) {
	dbPath := testEnv(t)
	seed(t, dbPath)

	out, err := run(t, "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "Trip Hop") || !strings.Contains(out, "1990s") {
		t.Errorf("stats output:\n%s", out)
	}

	if _, err := run(t, "clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	out, err = run(t, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Tracks:      0") || !strings.Contains(out, "machine-1") {
		t.Errorf("status after clear:\n%s", out)
	}
}

func TestSyncIfStaleSkipsFreshCache(t *testing.T) {
	dbPath := testEnv(t)
	seed(t, dbPath)

	out, err := run(t, "sync", "--if-stale")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(out, "Cache is fresh") {
		t.Errorf("output:\n%s", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("PLEX_TOKEN", "")

	_, err := run(t, "status")
	if err == nil || !strings.Contains(err.Error(), "PLEX_TOKEN") {
		t.Errorf("err = %v, want PLEX_TOKEN validation error", err)
	}
}

func TestCurateCommandErrors(t *testing.T) {
	testEnv(t)

	if _, err := run(t, "curate"); err == nil || !strings.Contains(err.Error(), "prompt") {
		t.Errorf("missing prompt err = %v", err)
	}
	if _, err := run(t, "curate", "rainy day", "--decade", "199x"); err == nil {
		t.Error("expected invalid decade error")
	}
	if _, err := run(t, "curate", "rainy day"); err == nil || !strings.Contains(err.Error(), "LLM_API_KEY") {
		t.Errorf("missing key err = %v", err)
	}
}

func TestStatsCommandFallsBackToPlex(t *testing.T) {
	testEnv(t)

	var genreCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /library/sections", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"Directory":[{"key":"3","type":"artist","title":"Music"}]}}`)
	})
	mux.HandleFunc("GET /library/sections/3/genre", func(w http.ResponseWriter, r *http.Request) {
		genreCalls.Add(1)
		fmt.Fprint(w, `{"MediaContainer":{"Directory":[{"key":"10","title":"Shoegaze"}]}}`)
	})
	mux.HandleFunc("GET /library/sections/3/decade", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"Directory":[{"key":"1990","title":"1990"}]}}`)
	})
	mux.HandleFunc("GET /library/sections/3/all", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"size":0,"totalSize":4321}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("PLEX_URL", srv.URL)

	for i := 0; i < 2; i++ {
		out, err := run(t, "stats")
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if !strings.Contains(out, "4,321") || !strings.Contains(out, "Shoegaze") || !strings.Contains(out, "1990s") {
			t.Errorf("stats output:\n%s", out)
		}
	}
	if n := genreCalls.Load(); n != 1 {
		t.Errorf("genre listing fetched %d times, want 1", n)
	}
}

// fakeModel answers chat completions based on which task the system prompt asks for.
type fakeModel struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeModel) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var system, user string
		for _, m := range req.Messages {
			if m.Role == "system" {
				system = m.Content
			} else {
				user = m.Content
			}
		}
		f.mu.Lock()
		f.prompts = append(f.prompts, user)
		f.mu.Unlock()

		content := `[{"artist":"Portishead","title":"Roads"},{"artist":"Massive Attack","title":"Teardrop"}]`
		switch {
		case strings.Contains(system, "musical dimensions"):
			content = `{"dimensions":[{"id":"mood","label":"Rainy-day melancholy"},{"id":"era","label":"Mid-90s Bristol"}]}`
		case strings.Contains(system, "suggest filters"):
			content = `{"genres":["trip hop","Polka"],"decades":["1990s"],"reasoning":"Downtempo."}`
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeModel) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func TestAnalyzeCommand(t *testing.T) {
	dbPath := testEnv(t)
	seed(t, dbPath)
	model := &fakeModel{}
	t.Setenv("LLM_URL", model.server(t).URL)
	t.Setenv("LLM_API_KEY", "key")

	if _, err := run(t, "analyze"); err == nil || !strings.Contains(err.Error(), "prompt") {
		t.Errorf("missing prompt err = %v", err)
	}

	out, err := run(t, "analyze", "rainy afternoon", "--seed", "2")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{"Genres:  Trip Hop", "Decades: 1990s", "Downtempo.", "Portishead - Roads", "Rainy-day melancholy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Polka") {
		t.Errorf("genre missing from the library was suggested:\n%s", out)
	}
}

func TestCurateCommandWithSeedAndSuggestedFilters(t *testing.T) {
	dbPath := testEnv(t)
	seed(t, dbPath)
	model := &fakeModel{}
	t.Setenv("LLM_URL", model.server(t).URL)
	t.Setenv("LLM_API_KEY", "key")

	out, err := run(t, "curate", "rainy afternoon", "--seed", "1", "--dimension", "mood", "--suggest-filters", "-n", "5")
	if err != nil {
		t.Fatalf("curate failed: %v", err)
	}
	for _, want := range []string{"Filters: genres=Trip Hop decades=1990s", "Seed: Massive Attack - Teardrop", "Rainy-day melancholy", "Matched 1 of 2", "Portishead - Roads"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	prompt := model.last()
	if !strings.Contains(prompt, "Explore these dimensions: Rainy-day melancholy") || strings.Contains(prompt, "Mid-90s Bristol") {
		t.Errorf("curation prompt = %s", prompt)
	}

	if _, err := run(t, "curate", "rainy", "--seed", "1", "--dimension", "tempo"); err == nil {
		t.Error("expected an error for an unknown dimension")
	}
	if _, err := run(t, "curate", "--seed", "1", "--suggest-filters"); err == nil {
		t.Error("expected --suggest-filters without a prompt to fail")
	}
}
