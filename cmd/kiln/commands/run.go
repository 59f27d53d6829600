package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run specified tasks",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.app.Run(cmd.Context(), args, runOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Run specified tasks and run them again when their inputs change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, runOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("rerun-tasks", false, "Ignore execution history and the build cache and run every task")
	cmd.Flags().Bool("no-build-cache", false, "Disable reading from and writing to the build cache")
	cmd.Flags().Bool("fail-fast", false, "Stop starting new tasks after the first failure")
	cmd.Flags().IntP("max-workers", "j", 0, "Maximum number of tasks executing at once (default from kiln.toml)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after the build")
}

func runOptions(cmd *cobra.Command) app.RunOptions {
	rerun, _ := cmd.Flags().GetBool("rerun-tasks")
	noBuildCache, _ := cmd.Flags().GetBool("no-build-cache")
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	maxWorkers, _ := cmd.Flags().GetInt("max-workers")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	dir, _ := cmd.Flags().GetString("directory")
	logFormat, _ := cmd.Flags().GetString("log-format")
	logLevel, _ := cmd.Flags().GetString("log-level")

	return app.RunOptions{
		Dir:          dir,
		Rerun:        rerun,
		NoBuildCache: noBuildCache,
		FailFast:     failFast,
		MaxWorkers:   maxWorkers,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		MetricsFile:  metricsFile,
	}
}
