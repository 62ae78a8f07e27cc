package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/rccget/internal/output"
	"github.com/tanq16/rccget/internal/workspace"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [PROJECT_DIR]",
		Short: "Remove the rcc/temp workspace left behind by a failed run",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			ws := workspace.New(dir)
			if err := ws.Clean(); err != nil {
				output.PrintError("Error cleaning up temporary files")
				os.Exit(1)
			}
			output.PrintSuccess("Temporary files cleaned up")
		},
	}
}
