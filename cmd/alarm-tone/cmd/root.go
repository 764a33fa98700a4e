package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/service/selector"
	"github.com/oshokin/proximity-alarm/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// settingsFile overrides the settings store path.
	settingsFile string
	// name is the display name of the selected tone.
	name string
	// clearSelection removes the selected tone.
	clearSelection bool
	// skipCheck saves the URI without decoding it.
	skipCheck bool

	// rootCmd represents the base command for tone selection.
	rootCmd = &cobra.Command{
		Use:   "alarm-tone [uri]",
		Short: "Show or select the alarm tone.",
		Long: `Without arguments prints the selected tone, or "No tone selected".

With a URI the tone is checked and persisted in the settings store; alarmd uses
it for sessions started without --tone. Supported URIs are builtin:alarm,
builtin:beep, file:///path/to/tone.wav and plain WAV file paths.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var uri string
			if len(args) > 0 {
				uri = args[0]
			}

			options := &selector.Options{
				ConfigPath:   cfgPath,
				SettingsFile: settingsFile,
				URI:          uri,
				Name:         name,
				Clear:        clearSelection,
				SkipCheck:    skipCheck,
				Output:       cmd.OutOrStdout(),
			}

			return selector.Run(context.Background(), options)
		},
	}
)

// Execute runs the alarm-tone CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&settingsFile, "settings-file", "s", "", "path to the settings store (overrides config)")
	rootCmd.Flags().StringVarP(&name, "name", "n", "", "display name of the tone")
	rootCmd.Flags().BoolVar(&clearSelection, "clear", false, "remove the selected tone")
	rootCmd.Flags().BoolVar(&skipCheck, "no-check", false, "save the URI without decoding it")

	rootCmd.MarkFlagsMutuallyExclusive("clear", "name")
}
