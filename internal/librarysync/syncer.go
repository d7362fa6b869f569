// Package librarysync mirrors the media source into the local cache.
package librarysync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/plexsage/internal/catalog"
	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
	"github.com/cesargomez89/plexsage/internal/store"
)

type Status string

const (
	StatusCompleted      Status = "completed"
	StatusStarted        Status = "started"
	StatusAlreadyRunning Status = "already_running"
	StatusFailed         Status = "failed"
)

// Result describes the outcome of a Run, or the acceptance of a Start.
type Result struct {
	Status          Status        `json:"status"`
	RunID           string        `json:"run_id,omitempty"`
	Entries         int           `json:"entries"`
	Removed         int64         `json:"removed"`
	Duration        time.Duration `json:"duration_ns"`
	IdentityChanged bool          `json:"identity_changed"`
}

// ProgressFunc receives a snapshot after each phase change and each batch.
type ProgressFunc func(domain.SyncProgress)

// Store is the part of the cache the syncer writes to.
type Store interface {
	IdentityChanged(ctx context.Context, current string) (bool, error)
	Clear(ctx context.Context) error
	WriteBatch(ctx context.Context, runID string, entries []domain.CatalogEntry) error
	FinishSync(ctx context.Context, runID, identity string, last []domain.CatalogEntry, took time.Duration) (store.SyncTotals, error)
	MarkSyncFailed(ctx context.Context) error
}

var _ Store = (*store.DB)(nil)

// Syncer runs at most one sync at a time and owns the live progress record.
type Syncer struct {
	source    catalog.Source
	store     Store
	logger    *logger.Logger
	now       func() time.Time
	newRunID  func() string
	batchSize int

	mu       sync.Mutex
	progress domain.SyncProgress
}

func New(source catalog.Source, st Store, batchSize int, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Default()
	}
	if batchSize <= 0 {
		batchSize = constants.DefaultSyncBatchSize
	}
	return &Syncer{
		source:    source,
		store:     st,
		logger:    log.WithComponent("sync"),
		now:       time.Now,
		newRunID:  uuid.NewString,
		batchSize: batchSize,
	}
}

// Progress returns a copy of the current progress record.
func (s *Syncer) Progress() domain.SyncProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// begin claims the syncer for a new run. It returns false if a run is active.
func (s *Syncer) begin() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.IsRunning {
		return "", false
	}
	runID := s.newRunID()
	started := s.now()
	s.progress = domain.SyncProgress{
		IsRunning: true,
		RunID:     runID,
		StartedAt: &started,
	}
	return runID, true
}

func (s *Syncer) update(onProgress ProgressFunc, fn func(p *domain.SyncProgress)) {
	s.mu.Lock()
	fn(&s.progress)
	snap := s.progress
	s.mu.Unlock()
	if onProgress != nil {
		onProgress(snap)
	}
}

// Run performs a full sync and blocks until it finishes. If another sync is
// active it returns StatusAlreadyRunning and a nil error.
func (s *Syncer) Run(ctx context.Context, onProgress ProgressFunc) (Result, error) {
	runID, ok := s.begin()
	if !ok {
		return Result{Status: StatusAlreadyRunning, RunID: s.Progress().RunID}, nil
	}
	return s.execute(ctx, runID, onProgress)
}

// Start launches a sync in the background and returns once it has been
// claimed. The run outlives ctx cancellation only if ctx allows it; callers
// serving a request should detach with context.WithoutCancel.
func (s *Syncer) Start(ctx context.Context, onProgress ProgressFunc) (Result, error) {
	runID, ok := s.begin()
	if !ok {
		return Result{Status: StatusAlreadyRunning, RunID: s.Progress().RunID}, nil
	}
	go func() {
		_, _ = s.execute(ctx, runID, onProgress)
	}()
	return Result{Status: StatusStarted, RunID: runID}, nil
}

func (s *Syncer) execute(ctx context.Context, runID string, onProgress ProgressFunc) (res Result, err error) {
	log := s.logger.WithSync(runID)
	started := s.now()
	res = Result{Status: StatusFailed, RunID: runID}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sync panicked: %v", p)
		}
		if err != nil {
			res.Status = StatusFailed
			// Record the failure even when ctx is what failed.
			if mErr := s.store.MarkSyncFailed(context.WithoutCancel(ctx)); mErr != nil {
				log.Error("Failed to reset cache state", "error", mErr)
			}
			log.Error("Sync failed", "error", err)
		}
		s.update(onProgress, func(p *domain.SyncProgress) {
			p.IsRunning = false
			p.Phase = domain.SyncPhaseIdle
			if err != nil {
				p.LastError = err.Error()
			}
		})
	}()

	res, err = s.sync(ctx, runID, log, onProgress)
	if err != nil {
		return res, err
	}
	res.Status = StatusCompleted
	res.Duration = s.now().Sub(started)
	log.Info("Sync completed", "entries", res.Entries, "removed", res.Removed, "duration", res.Duration)
	return res, nil
}

func (s *Syncer) sync(ctx context.Context, runID string, log *logger.Logger, onProgress ProgressFunc) (Result, error) {
	res := Result{Status: StatusFailed, RunID: runID}
	started := s.now()

	if s.source == nil {
		return res, fmt.Errorf("media source: %w", domain.ErrNotConfigured)
	}

	identity, err := s.source.Identity(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrNoSourceIdentity, err)
	}
	if identity == "" {
		return res, domain.ErrNoSourceIdentity
	}

	changed, err := s.store.IdentityChanged(ctx, identity)
	if err != nil {
		return res, err
	}
	if changed {
		log.Info("Source identity changed, clearing cache", "identity", identity)
		if err := s.store.Clear(ctx); err != nil {
			return res, fmt.Errorf("failed to clear cache: %w", err)
		}
		res.IdentityChanged = true
	}

	s.update(onProgress, func(p *domain.SyncProgress) { p.Phase = domain.SyncPhaseFetchingGroups })
	groups, err := s.source.AllGroups(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch groups: %w", err)
	}

	s.update(onProgress, func(p *domain.SyncProgress) { p.Phase = domain.SyncPhaseFetchingEntries })
	raw, err := s.source.AllEntries(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch entries: %w", err)
	}

	total := len(raw)
	log.Info("Fetched library", "groups", len(groups), "entries", total)
	s.update(onProgress, func(p *domain.SyncProgress) {
		p.Phase = domain.SyncPhaseProcessing
		p.Current = 0
		p.Total = total
	})

	batch := make([]domain.CatalogEntry, 0, min(s.batchSize, total))
	for i, r := range raw {
		batch = append(batch, catalog.BuildEntry(r, groups))

		if len(batch) < s.batchSize || i == total-1 {
			continue
		}
		if err := s.store.WriteBatch(ctx, runID, batch); err != nil {
			return res, fmt.Errorf("failed to write batch: %w", err)
		}
		done := i + 1
		s.update(onProgress, func(p *domain.SyncProgress) { p.Current = done })
		batch = batch[:0]
	}

	totals, err := s.store.FinishSync(ctx, runID, identity, batch, s.now().Sub(started))
	if err != nil {
		return res, fmt.Errorf("failed to finish sync: %w", err)
	}
	s.update(onProgress, func(p *domain.SyncProgress) { p.Current = total })

	res.Entries = totals.Entries
	res.Removed = totals.Removed
	return res, nil
}
