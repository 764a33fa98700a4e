package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/service/client"
	"github.com/oshokin/proximity-alarm/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string

	// rootCmd represents the base command for stopping a session.
	rootCmd = &cobra.Command{
		Use:   "alarm-stop [server-address]",
		Short: "Stop the running proximity session.",
		Long: `Asks alarmd to stop the running session: location updates end, the alarm
sound is released and the notification is cleared.

Stopping when nothing is running succeeds.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
			}

			return client.RunStop(ctx, options)
		},
	}
)

// Execute runs the alarm-stop CLI and exits with non-zero status on error.
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
}
