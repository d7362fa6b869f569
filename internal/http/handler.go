package httpapp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/librarysync"
	"github.com/cesargomez89/plexsage/internal/logger"
)

// SyncRunner starts background syncs and reports their progress.
type SyncRunner interface {
	Start(ctx context.Context, onProgress librarysync.ProgressFunc) (librarysync.Result, error)
	Progress() domain.SyncProgress
}

// Library is the read and maintenance side of the cache.
type Library interface {
	State(ctx context.Context) (domain.SyncState, error)
	IsStale(ctx context.Context, maxAge time.Duration) (bool, error)
	HasEntries(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (domain.LibraryStats, error)
}

// FilterCounter counts entries matching a filter.
type FilterCounter interface {
	Count(ctx context.Context, spec domain.FilterSpec, preferCache bool) (int, error)
}

// StatsSource answers library stats when the cache is empty.
type StatsSource interface {
	LibraryStats(ctx context.Context) (domain.LibraryStats, error)
}

type Handler struct {
	Syncer      SyncRunner
	Library     Library
	Filters     FilterCounter
	Source      StatsSource
	CacheMaxAge time.Duration
	Logger      *logger.Logger
}

func NewHandler(s SyncRunner, lib Library, filters FilterCounter, src StatsSource, maxAge time.Duration, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	if maxAge <= 0 {
		maxAge = constants.DefaultCacheMaxAge
	}
	return &Handler{
		Syncer:      s,
		Library:     lib,
		Filters:     filters,
		Source:      src,
		CacheMaxAge: maxAge,
		Logger:      log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/library/sync", h.StartSync)
		r.Get("/library/status", h.LibraryStatus)
		r.Delete("/library/cache", h.ClearCache)
		r.Get("/library/stats", h.LibraryStats)
		r.Post("/filter/preview", h.FilterPreview)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", constants.MimeTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
