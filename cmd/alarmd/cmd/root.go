package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/service/daemon"
	"github.com/oshokin/proximity-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// settingsFile overrides the settings store path.
	settingsFile string
	// trackFile overrides the replayed location track.
	trackFile string
	// allowMultiple disables the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "alarmd [listen-address]",
		Short: "Run the proximity alarm daemon.",
		Long: `Starts the daemon that owns the proximity monitoring session.

The daemon serves the session gRPC API on the configured server address, or on
the address given as argument (e.g., :9090, 127.0.0.1:7070). Locations arrive
through ReportLocation, or from a recorded track when --track is set.
When a location comes within 500 meters of the target the selected tone plays
once and keeps looping until the session is stopped.

SIGINT and SIGTERM stop the running session and release audio before exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			logger.InfoKV(ctx, "Starting alarmd", version.KV()...)

			options := &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				SettingsFile:  settingsFile,
				TrackFile:     trackFile,
				AllowMultiple: allowMultiple,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the alarmd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&settingsFile, "settings-file", "s", "", "path to the settings store (overrides config)")
	rootCmd.Flags().StringVarP(&trackFile, "track", "t", "", "replay this YAML track instead of reported locations")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")
}
