// root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Clean1ines/sp2ytm/pkg/sync"
)

func newRootCommand() *cobra.Command {
	var (
		add, autoAdd, dryRun bool
		opts                 migrateOptions
	)

	rootCmd := &cobra.Command{
		Use:           "sp2ytm",
		Short:         "Перенос плейлистов из выгрузки Spotify в YouTube Music",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case add:
				opts.Mode = sync.ModeAdd
			case autoAdd:
				opts.Mode = sync.ModeAutoAdd
			case dryRun:
				opts.Mode = sync.ModeDryRun
			}
			// только --liked без явного --file: плейлисты не трогаем
			if opts.Liked != "" && !cmd.Flags().Changed("file") {
				opts.File = ""
			}

			a, err := newApp(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.migrate(cmd.Context(), opts)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", report.Summary())
			}
			return err
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&add, "add", false, "Interactively create playlists with selected songs")
	flags.BoolVar(&autoAdd, "auto-add", false, "Automatically create playlists using first search results")
	flags.BoolVar(&dryRun, "dry-run", false, "Only search and show results without creating playlists")
	flags.StringVar(&opts.File, "file", "playlists.json", "JSON file with playlists")
	flags.StringVar(&opts.Auth, "auth", "oauth.json", "Path to the YouTube OAuth token")
	flags.StringVar(&opts.Playlist, "playlist", "", "Migrate only the playlist with this name")
	flags.StringVar(&opts.Liked, "liked", "", "Songs JSON file to add to Liked Music")
	rootCmd.MarkFlagsMutuallyExclusive("add", "auto-add", "dry-run")
	rootCmd.MarkFlagsOneRequired("add", "auto-add", "dry-run")

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newEnqueueCommand())
	rootCmd.AddCommand(newWorkerCommand())

	return rootCmd
}
