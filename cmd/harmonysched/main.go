// Command harmonysched runs the scheduling core end to end: it reads a
// canonical request, builds a constraint model, solves it under a
// wall-clock budget, and prints the response envelope spec.md §6 defines.
//
// The HTTP surface, client-format adapters, and bootstrap wiring are
// external collaborators per spec.md §1; this binary is a thin CLI shim
// around the core packages, not a server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrel-systems/harmonysched/internal/cliconfig"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "harmonysched",
		Short: "Solve flexible job-shop schedules under capability routing and resource calendars.",
	}

	loadConfig := cliconfig.BindFlags(root.PersistentFlags())
	root.AddCommand(newSolveCommand(loadConfig))
	return root
}
