package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/plexsage/internal/constants"
	httpapp "github.com/cesargomez89/plexsage/internal/http"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var syncIfStale bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library sync and filter API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			if syncIfStale {
				stale, err := app.db.IsStale(cmd.Context(), app.cfg.CacheMaxAge)
				if err != nil {
					return err
				}
				if stale {
					res, _ := app.syncer.Start(context.WithoutCancel(cmd.Context()), nil)
					app.log.Info("Cache is stale, sync started", "run_id", res.RunID)
				}
			}

			// Initialize Router
			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)

			h := httpapp.NewHandler(app.syncer, app.db, app.evaluator, app.stats(), app.cfg.CacheMaxAge, app.log)
			h.RegisterRoutes(r)

			srv := &http.Server{
				Addr:    ":" + app.cfg.Port,
				Handler: r,
			}

			errCh := make(chan error, 1)
			go func() {
				app.log.Info("Server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// Graceful Shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			app.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if p := app.syncer.Progress(); p.IsRunning {
				app.log.Warn("Exiting with sync in progress", "run_id", p.RunID)
			}
			app.log.Info("Server exiting")
			return nil
		},
	}

	cmd.Flags().BoolVar(&syncIfStale, "sync-if-stale", false, "Start a background sync when the cache is empty or older than CACHE_MAX_AGE")
	return cmd
}
