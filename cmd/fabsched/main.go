// fabsched is the operator CLI for the fabsched scheduling engine. It works
// against the same job store as the daemon, so a pass run from the shell and
// a pass run over HTTP see the same committed schedule.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "fabsched",
		Short:         "Capacity-aware shop scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newImportCommand(),
		newScheduleCommand(),
		newFeasibilityCommand(),
		newBufferCommand(),
		newExportCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
