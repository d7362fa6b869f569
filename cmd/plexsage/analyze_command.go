package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var seedID string

	cmd := &cobra.Command{
		Use:   "analyze [prompt]",
		Short: "Suggest filters for a prompt, or list the dimensions of a seed track",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompt string
			if len(args) == 1 {
				prompt = strings.TrimSpace(args[0])
			}
			if prompt == "" && seedID == "" {
				return fmt.Errorf("a prompt or --seed is required")
			}

			app, err := ctx.open()
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck // deferred cleanup

			a, err := app.analyzer()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if prompt != "" {
				pa, err := a.AnalyzePrompt(cmd.Context(), prompt)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Genres:  %s\n", listOrAny(pa.SuggestedGenres))
				fmt.Fprintf(out, "Decades: %s\n", listOrAny(pa.SuggestedDecades))
				if pa.Reasoning != "" {
					fmt.Fprintf(out, "Why:     %s\n", pa.Reasoning)
				}
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
				fmt.Fprintf(out, "%s - %s\n", seed.Artist, seed.Title)
				for _, d := range ta.Dimensions {
					fmt.Fprintf(out, "  %-16s %s\n", d.ID, d.Label)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seedID, "seed", "", "Rating key of a track to analyze")
	return cmd
}
