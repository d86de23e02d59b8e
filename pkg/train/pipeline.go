// Package train is the boundary to the engine build pipeline. It drives the
// pipeline's bookkeeping — corpus discovery, model layout, engine metadata —
// while the actual model estimation lives in external collaborators.
package train

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pallinder/go-randomdata"

	"github.com/naelmusleh/modernmt/pkg"
	"github.com/naelmusleh/modernmt/pkg/engine"
)

// StepPreprocess, StepTrain and StepFinalize name the selectable pipeline
// steps of an engine build.
const (
	StepPreprocess = "preprocess"
	StepTrain      = "train"
	StepFinalize   = "finalize"
)

// AllSteps lists the pipeline steps in execution order.
var AllSteps = []string{StepPreprocess, StepTrain, StepFinalize}

// CreateOptions configures a full engine build.
type CreateOptions struct {
	Source string
	Target string
	Corpus string
	// Steps selects a subset of AllSteps; empty means all.
	Steps []string
}

// Pipeline builds an engine from a corpus directory, step by step.
type Pipeline struct {
	engine      *engine.Engine
	options     CreateOptions
	coordinator *pkg.ProgressCoordinator
	runName     string

	corpora []Corpus
}

// NewPipeline creates a build pipeline for the given engine.
func NewPipeline(e *engine.Engine, options CreateOptions, coordinator *pkg.ProgressCoordinator) *Pipeline {
	return &Pipeline{
		engine:      e,
		options:     options,
		coordinator: coordinator,
		runName:     fmt.Sprintf("%s-%s", randomdata.Adjective(), randomdata.Noun()),
	}
}

// RunName identifies this build in progress output and logs.
func (pipeline *Pipeline) RunName() string {
	return pipeline.runName
}

// Run executes the selected steps in order.
func (pipeline *Pipeline) Run() error {
	selected := func(step string) bool {
		if len(pipeline.options.Steps) == 0 {
			return true
		}
		for _, name := range pipeline.options.Steps {
			if name == step {
				return true
			}
		}
		return false
	}

	steps := 0
	for _, step := range AllSteps {
		if selected(step) {
			steps++
		}
	}
	if pipeline.coordinator != nil {
		pipeline.coordinator.StartProgress(pipeline.runName, steps)
	}

	chain := NewPhaseChain()
	chain.AddPhase(&funcPhase{StepPreprocess, selected(StepPreprocess), pipeline.preprocess})
	chain.AddPhase(&funcPhase{StepTrain, selected(StepTrain), pipeline.train})
	chain.AddPhase(&funcPhase{StepFinalize, selected(StepFinalize), pipeline.finalize})
	chain.SetAfterRun(func(phase Phase) {
		if pipeline.coordinator != nil {
			pipeline.coordinator.AddEvent(pipeline.runName, phase.Name())
		}
	})

	if err := chain.Run(); err != nil {
		return err
	}

	if pipeline.coordinator != nil {
		pipeline.coordinator.AddEvent(pipeline.runName, pkg.CompletedEvent)
	}
	return nil
}

type funcPhase struct {
	name      string
	shouldRun bool
	run       func() error
}

func (phase *funcPhase) Name() string    { return phase.name }
func (phase *funcPhase) ShouldRun() bool { return phase.shouldRun }
func (phase *funcPhase) Run() error      { return phase.run() }

// preprocess discovers and validates the parallel corpora and records their
// statistics in the model directory.
func (pipeline *Pipeline) preprocess() error {
	if err := pipeline.engine.PrepareLayout(); err != nil {
		return err
	}

	corpora, err := ScanCorpora(pipeline.options.Corpus, pipeline.options.Source, pipeline.options.Target)
	if err != nil {
		return err
	}
	pipeline.corpora = corpora

	var index strings.Builder
	totalLines := 0
	for _, corpus := range corpora {
		fmt.Fprintf(&index, "%s\t%d\n", corpus.Name, corpus.Lines)
		totalLines += corpus.Lines
	}
	fmt.Fprintf(&index, "total\t%d\n", totalLines)

	return os.WriteFile(filepath.Join(pipeline.engine.ModelsDir(), "corpora.index"), []byte(index.String()), 0644)
}

// train writes the model artifacts. Model estimation itself belongs to the
// external decoding engine, the pipeline owns only the layout and the
// decoder weights the tuner later rewrites.
func (pipeline *Pipeline) train() error {
	if pipeline.corpora == nil {
		corpora, err := ScanCorpora(pipeline.options.Corpus, pipeline.options.Source, pipeline.options.Target)
		if err != nil {
			return err
		}
		pipeline.corpora = corpora
	}

	lines := 0
	for _, corpus := range pipeline.corpora {
		lines += corpus.Lines
	}

	model := fmt.Sprintf("source=%s\ntarget=%s\nsentences=%d\ncorpora=%d\n",
		pipeline.options.Source, pipeline.options.Target, lines, len(pipeline.corpora))
	if err := os.WriteFile(filepath.Join(pipeline.engine.ModelsDir(), "translation.model"), []byte(model), 0644); err != nil {
		return err
	}

	return WriteWeights(pipeline.engine, DefaultWeights())
}

// finalize stamps the engine metadata, making the engine visible to
// start/status/tune.
func (pipeline *Pipeline) finalize() error {
	return pipeline.engine.WriteProperties(&engine.Properties{
		SourceLanguage: pipeline.options.Source,
		TargetLanguage: pipeline.options.Target,
	})
}
