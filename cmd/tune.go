package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naelmusleh/modernmt/pkg/cluster"
	"github.com/naelmusleh/modernmt/pkg/engine"
	"github.com/naelmusleh/modernmt/pkg/train"
)

// tuneCmd represents the tune command
var tuneCmd = &cobra.Command{
	Use:   "tune <CORPUS>",
	Short: "tunes the decoder weights of an existing engine",
	Long: `This command re-estimates the decoder weights of an already built engine
against a held-out tuning corpus. The engine must exist; a running instance
keeps serving with the previous weights until restarted.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateTuneFlags,
	Run:     RunTune,
}

func validateTuneFlags(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(args[0]); err != nil || !info.IsDir() {
		return fmt.Errorf("tuning corpus directory '%s' not found", args[0])
	}

	engineName, _ := cmd.Flags().GetString("engine")
	if !engine.New(engineName).Exists() {
		return fmt.Errorf("engine '%s' not found, did you run 'mmt create' first?", engineName)
	}

	return nil
}

// RunTune executes the tuning run
func RunTune(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")
	skipContext, _ := cmd.Flags().GetBool("skip-context-analysis")

	tuner := train.NewTuner(engine.New(engineName), train.TuneOptions{
		Corpus:              args[0],
		SkipContextAnalysis: skipContext,
	})

	err := tuner.Run()
	FatalOnError(err)

	apiPort, _ := cmd.Flags().GetInt("api-port")
	if apiPort != 0 && !cluster.NewTCPPortProbe().IsFree(apiPort) {
		log.Printf("the instance on port %d keeps serving with the previous weights until restarted", apiPort)
	}

	log.Printf("engine '%s' tuned, restart it to pick up the new weights", engineName)
}

func init() {
	rootCmd.AddCommand(tuneCmd)

	tuneCmd.Flags().StringP("engine", "e", "default", "name of the engine to tune")
	tuneCmd.Flags().IntP("api-port", "p", 0, "api port of the running engine instance, when not the default")
	tuneCmd.Flags().Bool("skip-context-analysis", false, "skip the context analysis weight")
}
