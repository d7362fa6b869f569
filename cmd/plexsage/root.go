package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFile string

	ctx := newCommandContext(&envFile)

	rootCmd := &cobra.Command{
		Use:           "plexsage",
		Short:         "Plex library cache and playlist curator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this .env file instead of ./.env")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newCurateCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))

	return rootCmd
}
