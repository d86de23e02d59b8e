package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naelmusleh/modernmt/pkg"
	"github.com/naelmusleh/modernmt/pkg/engine"
	"github.com/naelmusleh/modernmt/pkg/train"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create <SOURCE> <TARGET> <CORPUS>",
	Short: "builds a translation engine from a parallel corpus",
	Long: `This command builds a named engine for a language pair from a directory of
parallel corpora, e.g.:

	mmt create en it examples/data/train

A corpus named "europarl" for en-it consists of the aligned files europarl.en
and europarl.it. Any running instance of the engine is stopped before the
build. Use --steps to re-run a subset of the pipeline.`,
	Args:    cobra.ExactArgs(3),
	PreRunE: validateCreateFlags,
	Run:     RunCreate,
}

func validateCreateFlags(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(args[2]); err != nil || !info.IsDir() {
		return fmt.Errorf("corpus directory '%s' not found", args[2])
	}

	steps, _ := cmd.Flags().GetStringSlice("steps")
	for _, step := range steps {
		known := false
		for _, name := range train.AllSteps {
			if step == name {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("unknown step '%s', available steps: %v", step, train.AllSteps)
		}
	}

	return nil
}

// RunCreate executes the engine build
func RunCreate(cmd *cobra.Command, args []string) {
	source, target, corpus := args[0], args[1], args[2]
	engineName, _ := cmd.Flags().GetString("engine")
	steps, _ := cmd.Flags().GetStringSlice("steps")

	// a rebuild must not race a running instance of the same engine
	err := newController().Stop(AppConf.Context, engineName)
	FatalOnError(err)

	e := engine.New(engineName)
	coordinator := pkg.NewProgressCoordinator()

	pipeline := train.NewPipeline(e, train.CreateOptions{
		Source: source,
		Target: target,
		Corpus: corpus,
		Steps:  steps,
	}, coordinator)

	log.Printf("building engine '%s' (%s-%s), run %s", e.Name, source, target, pipeline.RunName())

	err = pipeline.Run()
	FatalOnError(err)
	coordinator.Wait()

	meta, err := e.Properties()
	FatalOnError(err)

	AppConf.Config.AddEngine(EngineRef{
		Name:           e.Name,
		SourceLanguage: meta.SourceLanguage,
		TargetLanguage: meta.TargetLanguage,
		CreatedAt:      meta.CreatedAt,
	})
	AppConf.Config.WriteCurrentConfig()

	log.Printf("engine '%s' built successfully, start it with: mmt start -e %s", e.Name, e.Name)
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringP("engine", "e", "default", "name of the engine to build")
	createCmd.Flags().StringSlice("steps", nil, "subset of pipeline steps to run (default all)")
}
