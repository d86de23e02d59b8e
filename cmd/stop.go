package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "stops a translation engine cluster",
	Long: `This command stops whichever roles of the engine cluster are running,
determined by probing, not by what any previous invocation started.

Stopping an engine that is not running is a successful no-op.`,
	Run: RunStop,
}

// RunStop executes the cluster stop
func RunStop(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")

	err := newController().Stop(AppConf.Context, engineName)
	FatalOnError(err)

	log.Printf("engine '%s' stopped", engineName)
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().StringP("engine", "e", "default", "name of the engine to stop")
}
