package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/librarysync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var ifStale bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the Plex music library into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			out := cmd.OutOrStdout()
			if ifStale {
				stale, err := app.db.IsStale(cmd.Context(), app.cfg.CacheMaxAge)
				if err != nil {
					return err
				}
				if !stale {
					fmt.Fprintln(out, "Cache is fresh, nothing to do")
					return nil
				}
			}

			res, err := app.syncer.Run(cmd.Context(), func(p domain.SyncProgress) {
				printProgress(out, p)
			})
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if res.Status == librarysync.StatusAlreadyRunning {
				fmt.Fprintln(out, "A sync is already running")
				return nil
			}

			fmt.Fprintf(out, "Synced %s tracks in %s (%s removed)\n",
				humanize.Comma(int64(res.Entries)), res.Duration.Round(time.Millisecond), humanize.Comma(res.Removed))
			if res.IdentityChanged {
				fmt.Fprintln(out, "Server identity changed; the previous cache was discarded")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ifStale, "if-stale", false, "Only sync when the cache is empty or older than CACHE_MAX_AGE")
	return cmd
}

func printProgress(out io.Writer, p domain.SyncProgress) {
	switch p.Phase {
	case domain.SyncPhaseFetchingGroups:
		fmt.Fprintln(out, "Fetching albums...")
	case domain.SyncPhaseFetchingEntries:
		fmt.Fprintln(out, "Fetching tracks...")
	case domain.SyncPhaseProcessing:
		if p.Total > 0 {
			fmt.Fprintf(out, "Processing %s / %s\n", humanize.Comma(int64(p.Current)), humanize.Comma(int64(p.Total)))
		}
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the library cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			state, err := app.db.State(cmd.Context())
			if err != nil {
				return err
			}
			stale, err := app.db.IsStale(cmd.Context(), app.cfg.CacheMaxAge)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			server := state.SourceIdentity
			if server == "" {
				server = "(never synced)"
			}
			fmt.Fprintf(out, "Server:      %s\n", server)
			fmt.Fprintf(out, "Tracks:      %s\n", humanize.Comma(int64(state.EntryCount)))
			if state.LastSyncedAt != nil {
				fmt.Fprintf(out, "Last sync:   %s\n", humanize.Time(*state.LastSyncedAt))
			} else {
				fmt.Fprintln(out, "Last sync:   never")
			}
			if state.LastSyncDurationMS != nil {
				fmt.Fprintf(out, "Took:        %s\n", time.Duration(*state.LastSyncDurationMS)*time.Millisecond)
			}
			fmt.Fprintf(out, "Stale:       %t\n", stale)
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached track",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			if err := app.db.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Library cache cleared")
			return nil
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show genre and decade counts (cache first, Plex otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			stats, err := libraryStats{app: app}.LibraryStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tracks: %s\n", humanize.Comma(int64(stats.TotalEntries)))
			printCounts(out, "Genres", stats.Genres)
			printCounts(out, "Decades", stats.Decades)
			return nil
		},
	}
}

func printCounts(out io.Writer, label string, counts []domain.NamedCount) {
	if len(counts) == 0 {
		fmt.Fprintf(out, "%s: none\n", label)
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, c := range counts {
		fmt.Fprintf(out, "  %-24s %s\n", c.Name, humanize.Comma(int64(c.Count)))
	}
}
