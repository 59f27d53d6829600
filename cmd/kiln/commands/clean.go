package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the execution history and the build cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, _ := cmd.Flags().GetBool("history")
			cache, _ := cmd.Flags().GetBool("cache")
			dir, _ := cmd.Flags().GetString("directory")

			opts := app.CleanOptions{Dir: dir, History: history, Cache: cache}
			if !history && !cache {
				// Default behavior: clean everything
				opts.History = true
				opts.Cache = true
			}
			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().Bool("history", false, "Clean only the execution history")
	cmd.Flags().Bool("cache", false, "Clean only the build cache")

	return cmd
}
