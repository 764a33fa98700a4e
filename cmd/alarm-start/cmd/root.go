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
	// serverAddress overrides the configured daemon address.
	serverAddress string
	// toneURI overrides the persisted tone.
	toneURI string
	// toneName is the display name for toneURI.
	toneName string

	// rootCmd represents the base command for starting a session.
	rootCmd = &cobra.Command{
		Use:   "alarm-start <latitude> <longitude>",
		Short: "Start monitoring the distance to a destination.",
		Long: `Asks alarmd to start a proximity session for the given destination in decimal
degrees. Any running session is stopped first.

The tone selected with alarm-tone plays on arrival unless --tone overrides it.
The coordinates 0,0 are rejected as "no destination".`,
		Example: "  alarm-start 37.7749 -122.4194\n  alarm-start 51.5007 -0.1246 --tone builtin:beep",
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			target, err := client.ParseTarget(args[0], args[1])
			if err != nil {
				return err
			}

			options := &client.StartOptions{
				Options: client.Options{
					ConfigPath:    cfgPath,
					ServerAddress: serverAddress,
				},
				Target:   target,
				ToneURI:  toneURI,
				ToneName: toneName,
			}

			return client.RunStart(ctx, options)
		},
	}
)

// Execute runs the alarm-start CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&serverAddress, "server", "a", "", "daemon address (overrides config)")
	rootCmd.Flags().StringVar(&toneURI, "tone", "", "tone URI for this session (builtin:alarm, builtin:beep, file:///path.wav)")
	rootCmd.Flags().StringVar(&toneName, "tone-name", "", "display name for --tone")
}
