package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "prints the aggregate liveness of an engine cluster",
	Long: `This command probes both roles of the engine cluster and prints "running"
when at least one of them is alive, "stopped" otherwise. Per-role detail goes
to stderr.`,
	Run: RunStatus,
}

// RunStatus executes the status probe
func RunStatus(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")

	status, err := newController().Status(engineName)
	FatalOnError(err)

	fmt.Fprintf(os.Stderr, "master: %s\n", status.Master)
	fmt.Fprintf(os.Stderr, "worker: %s\n", status.Worker)

	if status.Running() {
		fmt.Println("running")
	} else {
		fmt.Println("stopped")
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("engine", "e", "default", "name of the engine to probe")
}
