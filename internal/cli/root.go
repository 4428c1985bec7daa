// Package cli holds the csvimport command tree.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the csvimport command with its run and serve
// subcommands.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "csvimport",
		Short: "Bulk-load pagina_*.csv files into MongoDB.",
		Long: `csvimport reads every pagina_*.csv file of an input directory, turns each
row into a document following a field-mapping description and inserts the
documents into a MongoDB collection, several files at a time.

Configuration comes from a JSON file (--config), CSVIMPORT_* environment
variables and flags, flags winning.`,
		SilenceUsage: true,
	}
	rc.PersistentFlags().StringP("config", "c", "config/config.json", "Configuration file to read from.")

	rc.AddCommand(newRunCommand(stdout, stderr))
	rc.AddCommand(newServeCommand(stdout, stderr))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}
