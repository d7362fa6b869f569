package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cesargomez89/plexsage/internal/curator"
	"github.com/cesargomez89/plexsage/internal/domain"
)

func newCurateCommand(ctx *commandContext) *cobra.Command {
	var (
		req            curator.Request
		filter         domain.FilterSpec
		playlist       string
		seedID         string
		dimensions     []string
		suggestFilters bool
	)

	cmd := &cobra.Command{
		Use:   "curate [prompt]",
		Short: "Ask the model for a playlist drawn from the library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Prompt = strings.TrimSpace(args[0])
			}
			if req.Prompt == "" && req.Notes == "" && seedID == "" {
				return fmt.Errorf("a prompt or --seed is required")
			}
			if suggestFilters && req.Prompt == "" {
				return fmt.Errorf("--suggest-filters needs a prompt")
			}
			if err := filter.Validate(); err != nil {
				return err
			}

			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			c, err := app.curator()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if suggestFilters || seedID != "" {
				a, err := app.analyzer()
				if err != nil {
					return err
				}
				if suggestFilters {
					pa, err := a.AnalyzePrompt(cmd.Context(), req.Prompt)
					if err != nil {
						return err
					}
					if len(filter.Genres) == 0 {
						filter.Genres = pa.SuggestedGenres
					}
					if len(filter.Decades) == 0 {
						filter.Decades = pa.SuggestedDecades
					}
					fmt.Fprintf(out, "Filters: genres=%s decades=%s\n", listOrAny(filter.Genres), listOrAny(filter.Decades))
				}
				if seedID != "" {
					seed, err := app.lookupEntry(cmd.Context(), seedID)
					if err != nil {
						return err
					}
					ta, err := a.AnalyzeTrack(cmd.Context(), seed)
					if err != nil {
						return err
					}
					req.Seed = &seed
					req.Dimensions = ta.Labels(dimensions...)
					if len(dimensions) > 0 && len(req.Dimensions) == 0 {
						return fmt.Errorf("none of the dimensions %v were found for %q", dimensions, seed.Title)
					}
					fmt.Fprintf(out, "Seed: %s - %s\n", seed.Artist, seed.Title)
					for _, d := range req.Dimensions {
						fmt.Fprintf(out, "  * %s\n", d)
					}
				}
			}
			req.Filter = filter

			res, err := c.Curate(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Matched %d of %d selections from a pool of %d tracks\n",
				len(res.Entries), len(res.Extraction.Selections), res.PoolSize)
			for i, e := range res.Entries {
				fmt.Fprintf(out, "%2d. %s - %s (%s) [%s]\n", i+1, e.Artist, e.Title, e.Album, e.DurationFormatted())
				if reason := res.Reasons[e.ID]; reason != "" {
					fmt.Fprintf(out, "    %s\n", reason)
				}
			}

			if playlist == "" || len(res.Entries) == 0 {
				return nil
			}
			ids := make([]string, 0, len(res.Entries))
			for _, e := range res.Entries {
				ids = append(ids, e.ID)
			}
			pl, err := app.plex.CreatePlaylist(cmd.Context(), playlist, ids)
			if err != nil {
				return err
			}
			if !pl.Success {
				return fmt.Errorf("no tracks could be added to playlist %q", playlist)
			}
			fmt.Fprintf(out, "Created playlist %q with %d tracks (%d skipped)\n%s\n", playlist, pl.AddedCount, pl.SkippedCount, pl.URL)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&req.TrackCount, "count", "n", 25, "Number of tracks to pick")
	flags.StringVar(&req.Notes, "notes", "", "Additional notes for the curator")
	flags.StringSliceVar(&filter.Genres, "genre", nil, "Only consider these genres (repeatable)")
	flags.StringSliceVar(&filter.Decades, "decade", nil, "Only consider these decades, e.g. 1990s (repeatable)")
	flags.IntVar(&filter.MinRating, "min-rating", 0, "Minimum user rating (0-10)")
	flags.BoolVar(&filter.ExcludeLive, "exclude-live", false, "Skip live recordings")
	flags.StringVar(&playlist, "playlist", "", "Create a Plex playlist with this name from the result")
	flags.StringVar(&seedID, "seed", "", "Rating key of a track to build the playlist around")
	flags.StringSliceVar(&dimensions, "dimension", nil, "Seed dimension ids to explore (default all)")
	flags.BoolVar(&suggestFilters, "suggest-filters", false, "Let the model pick genres and decades not given explicitly")
	return cmd
}

func listOrAny(values []string) string {
	if len(values) == 0 {
		return "any"
	}
	return strings.Join(values, ",")
}
