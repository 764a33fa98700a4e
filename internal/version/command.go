package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided
// root command and sets root.Version so `--version` works too.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	command := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the version, commit hash, build time and Go version of this binary.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Short())

				return
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	}

	command.Flags().BoolVar(&short, "short", false, "print only the version number")

	root.Version = Short()
	root.AddCommand(command)
}
