package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/service/feeder"
	"github.com/oshokin/proximity-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the configured daemon address.
	serverAddress string
	// interval overrides location.interval.
	interval time.Duration
	// loop restarts the track at its end.
	loop bool

	// rootCmd represents the base command for feeding a track.
	rootCmd = &cobra.Command{
		Use:   "alarm-feeder <track.yaml>",
		Short: "Replay a recorded track into alarmd.",
		Long: `Reads a YAML track and reports its points to alarmd one per interval, as a
location provider would. Reports rejected because no session is running are
logged and skipped.

Track format:
  name: commute
  samples:
    - {lat: 37.8000, lon: -122.4500}
    - {lat: 37.7751, lon: -122.4195, accuracy: 8}`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &feeder.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				TrackFile:     args[0],
				Interval:      interval,
				Loop:          loop,
			}

			return feeder.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-feeder CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&serverAddress, "server", "a", "", "daemon address (overrides config)")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "time between reports (defaults to location.interval)")
	rootCmd.Flags().BoolVar(&loop, "loop", false, "restart the track after the last point")
}
