package commands

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local build cache",
	}
	cmd.AddCommand(c.newCachePruneCmd())
	return cmd
}

func (c *CLI) newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Evict the least recently used build cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("directory")
			maxSize, err := sizeFlag(cmd, "max-size")
			if err != nil {
				return err
			}
			targetSize, err := sizeFlag(cmd, "target-size")
			if err != nil {
				return err
			}

			_, err = c.app.PruneCache(cmd.Context(), app.PruneOptions{
				Dir:        dir,
				MaxSize:    maxSize,
				TargetSize: targetSize,
			})
			return err
		},
	}

	cmd.Flags().String("max-size", "", "Prune once the cache is larger than this, e.g. 5GiB (default from kiln.toml)")
	cmd.Flags().String("target-size", "", "Size to shrink the cache to, e.g. 4GiB (default from kiln.toml)")

	return cmd
}

func sizeFlag(cmd *cobra.Command, name string) (int64, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrInvalidSize.Error()), name, value)
	}
	return int64(n), nil //nolint:gosec // sizes beyond int64 are not meaningful
}
