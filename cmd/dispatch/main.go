// Command dispatch inspects controller sources annotated with //dispatch:
// comments and prints the route table with its static analysis.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Inspect dispatch controllers and their routes",
		Long: `dispatch reads Go controllers annotated with //dispatch: comments,
builds the route table exactly as the runtime does and reports
missing backing parameters, duplicate routes and parameters that
cannot be bound.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		routesCmd(),
		versionCmd(),
	)
	return rootCmd
}
