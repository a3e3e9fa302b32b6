// Command replicatorctl is the command-line client for a running
// replicatord, talking to it over internal/apiclient. Style grounded on
// steveyegge-beads's cmd/bd: a package-level cobra root plus persistent
// flags, one subcommand file per resource/verb, JSON-or-plain output
// toggled by --json.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replicator/replicator/internal/apiclient"
)

var (
	serverAddr string
	authToken  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "replicatorctl",
	Short:         "Control a running replicatord sync engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://127.0.0.1:8089", "replicatord base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("REPLICATOR_TOKEN"), "bearer token (defaults to $REPLICATOR_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of a table")
}

func client() *apiclient.Client {
	return apiclient.New(serverAddr, authToken)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "replicatorctl: "+err.Error())
		os.Exit(1)
	}
}
