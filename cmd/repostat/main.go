package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var verbose, quiet bool

func main() {
	root := &cobra.Command{
		Use:           "repostat",
		Short:         "Parallel repository statistics engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case quiet:
				zerolog.SetGlobalLevel(zerolog.ErrorLevel)
			case verbose:
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			default:
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log analyzer phase transitions")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newStatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "repostat 0.1.0-dev")
		},
	}
}
