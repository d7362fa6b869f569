package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesargomez89/plexsage/internal/catalog"
	"github.com/cesargomez89/plexsage/internal/config"
	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/curator"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/httpclient"
	"github.com/cesargomez89/plexsage/internal/librarysync"
	"github.com/cesargomez89/plexsage/internal/logger"
	"github.com/cesargomez89/plexsage/internal/match"
	"github.com/cesargomez89/plexsage/internal/plex"
	"github.com/cesargomez89/plexsage/internal/store"
)

type commandContext struct {
	envFile *string
}

func newCommandContext(envFile *string) *commandContext {
	return &commandContext{envFile: envFile}
}

// application is the wired object graph shared by every command.
type application struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *store.DB
	plex      *plex.Client
	syncer    *librarysync.Syncer
	evaluator *catalog.Evaluator
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var files []string
	if c.envFile != nil && strings.TrimSpace(*c.envFile) != "" {
		files = append(files, strings.TrimSpace(*c.envFile))
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) open() (*application, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open library cache: %w", err)
	}

	client := plex.NewClient(cfg.PlexURL, cfg.PlexToken, cfg.PlexLibrary, log,
		httpclient.WithRetries(constants.DefaultRetryCount, constants.DefaultRetryBase))

	return &application{
		cfg:       cfg,
		log:       log,
		db:        db,
		plex:      client,
		syncer:    librarysync.New(client, db, cfg.SyncBatchSize, log),
		evaluator: catalog.NewEvaluator(db, client, log),
	}, nil
}

func (a *application) completer() (curator.Completer, error) {
	if !a.cfg.LLMConfigured() {
		return nil, errors.New("LLM_API_KEY is not set")
	}
	return curator.NewHTTPCompleter(curator.CompleterConfig{
		BaseURL: a.cfg.LLMURL,
		APIKey:  a.cfg.LLMAPIKey,
		Model:   a.cfg.LLMModel,
	}, httpclient.WithRetries(constants.DefaultRetryCount, constants.DefaultRetryBase)), nil
}

func (a *application) curator() (*curator.Curator, error) {
	completer, err := a.completer()
	if err != nil {
		return nil, err
	}
	return curator.New(a.evaluator, completer, match.NewResolver(a.log), a.cfg.MaxTracksToAI, a.log), nil
}

func (a *application) analyzer() (*curator.Analyzer, error) {
	completer, err := a.completer()
	if err != nil {
		return nil, err
	}
	return curator.NewAnalyzer(libraryStats{app: a}, completer, a.log), nil
}

// lookupEntry finds a track in the cache, then on the server.
func (a *application) lookupEntry(ctx context.Context, id string) (domain.CatalogEntry, error) {
	e, err := a.db.GetEntry(ctx, id)
	if err == nil || !errors.Is(err, domain.ErrEntryNotFound) {
		return e, err
	}
	raw, err := a.plex.Entry(ctx, id)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	return catalog.BuildEntry(raw, nil), nil
}

// stats answers from Plex when the cache is empty, memoized in the cache table.
func (a *application) stats() *catalog.CachedStats {
	return catalog.NewCachedStats(a.plex, a.db, constants.SourceStatsTTL, a.log)
}

// libraryStats reads stats from the cache when it has entries.
type libraryStats struct {
	app *application
}

func (l libraryStats) LibraryStats(ctx context.Context) (domain.LibraryStats, error) {
	has, err := l.app.db.HasEntries(ctx)
	if err != nil {
		return domain.LibraryStats{}, err
	}
	if has {
		return l.app.db.Stats(ctx)
	}
	return l.app.stats().LibraryStats(ctx)
}

func (a *application) Close() error {
	return a.db.Close()
}
