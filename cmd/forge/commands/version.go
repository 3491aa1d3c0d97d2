package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "forge %s (library %s)\n", version, forge.Version)
			fmt.Fprintf(os.Stdout, "  commit: %s\n", commit)
			fmt.Fprintf(os.Stdout, "  built:  %s\n", date)
			fmt.Fprintf(os.Stdout, "  go:     %s\n", runtime.Version())
		},
	}
}
