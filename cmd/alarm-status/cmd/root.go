package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/service/watcher"
	"github.com/oshokin/proximity-alarm/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// watch follows the status stream.
	watch bool

	// rootCmd represents the base command for inspecting the session.
	rootCmd = &cobra.Command{
		Use:   "alarm-status [server-address]",
		Short: "Show the running proximity session.",
		Long: `Prints the running session: phase, target, tone, last distance and sample count.

With --watch the command follows the notification stream instead and prints
every update (started, distance, arrived, cleared) until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &watcher.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Watch:         watch,
				Output:        cmd.OutOrStdout(),
			}

			return watcher.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-status CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "stream status updates until interrupted")
}
