package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/http/dto"
	"github.com/cesargomez89/plexsage/internal/librarysync"
)

func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	// The run must outlive this request.
	res, err := h.Syncer.Start(context.WithoutCancel(r.Context()), nil)
	if err != nil {
		h.Logger.Error("Failed to start sync", "error", err)
		h.writeError(w, constants.StatusInternalError, err.Error())
		return
	}

	if res.Status == librarysync.StatusAlreadyRunning {
		h.writeJSON(w, constants.StatusConflict, dto.SyncAccepted{Status: string(res.Status), RunID: res.RunID})
		return
	}
	h.writeJSON(w, constants.StatusAccepted, dto.SyncAccepted{Status: string(res.Status), RunID: res.RunID})
}

func (h *Handler) LibraryStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.Library.State(r.Context())
	if err != nil {
		h.writeError(w, constants.StatusInternalError, err.Error())
		return
	}
	stale, err := h.Library.IsStale(r.Context(), h.CacheMaxAge)
	if err != nil {
		h.writeError(w, constants.StatusInternalError, err.Error())
		return
	}
	h.writeJSON(w, constants.StatusOK, dto.NewLibraryStatus(state, stale, h.Syncer.Progress()))
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.Syncer.Progress().IsRunning {
		h.writeError(w, constants.StatusConflict, "sync in progress")
		return
	}
	if err := h.Library.Clear(r.Context()); err != nil {
		h.Logger.Error("Failed to clear cache", "error", err)
		h.writeError(w, constants.StatusInternalError, err.Error())
		return
	}
	h.Logger.Info("Library cache cleared")
	h.writeJSON(w, constants.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) LibraryStats(w http.ResponseWriter, r *http.Request) {
	has, err := h.Library.HasEntries(r.Context())
	if err != nil {
		h.writeError(w, constants.StatusInternalError, err.Error())
		return
	}

	var stats domain.LibraryStats
	switch {
	case has:
		stats, err = h.Library.Stats(r.Context())
	case h.Source != nil:
		stats, err = h.Source.LibraryStats(r.Context())
	default:
		h.writeError(w, constants.StatusServiceUnavailable, "library cache is empty")
		return
	}
	if err != nil {
		h.Logger.Error("Failed to load library stats", "error", err, "from_cache", has)
		h.writeError(w, statusFor(err), err.Error())
		return
	}
	h.writeJSON(w, constants.StatusOK, stats)
}

func (h *Handler) FilterPreview(w http.ResponseWriter, r *http.Request) {
	var req dto.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, constants.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeJSON(w, constants.StatusBadRequest, map[string]interface{}{
			"error":  dto.ToResponse(errs),
			"fields": dto.ToMap(errs),
		})
		return
	}

	fromCache := false
	if req.UseCache() {
		has, err := h.Library.HasEntries(r.Context())
		if err != nil {
			h.writeError(w, constants.StatusInternalError, err.Error())
			return
		}
		fromCache = has
	}

	n, err := h.Filters.Count(r.Context(), req.ToSpec(), req.UseCache())
	if err != nil {
		h.Logger.Error("Failed to count filter", "error", err)
		h.writeError(w, statusFor(err), err.Error())
		return
	}
	h.writeJSON(w, constants.StatusOK, dto.FilterPreview{MatchingEntries: n, FromCache: fromCache})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter), errors.Is(err, domain.ErrInvalidDecade):
		return constants.StatusBadRequest
	case errors.Is(err, domain.ErrSourceUnavailable), errors.Is(err, domain.ErrNotConfigured):
		return constants.StatusServiceUnavailable
	}
	return constants.StatusInternalError
}
