package train

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magiconair/properties"

	"github.com/naelmusleh/modernmt/pkg/engine"
)

// Weights are the decoder feature weights of an engine, rewritten by tuning.
type Weights map[string]float64

// DefaultWeights are the untuned decoder weights written by the build
// pipeline.
func DefaultWeights() Weights {
	return Weights{
		"decoder.weight.translation": 1.0,
		"decoder.weight.language":    1.0,
		"decoder.weight.distortion":  1.0,
		"decoder.weight.word":        1.0,
	}
}

// WeightsFile locates the decoder weights of an engine.
func WeightsFile(e *engine.Engine) string {
	return filepath.Join(e.ModelsDir(), "weights.properties")
}

// WriteWeights persists decoder weights.
func WriteWeights(e *engine.Engine, weights Weights) error {
	props := properties.NewProperties()
	for name, value := range weights {
		props.Set(name, fmt.Sprintf("%g", value))
	}

	var buffer bytes.Buffer
	if _, err := props.Write(&buffer, properties.UTF8); err != nil {
		return err
	}
	return os.WriteFile(WeightsFile(e), buffer.Bytes(), 0644)
}

// LoadWeights reads the decoder weights of an engine.
func LoadWeights(e *engine.Engine) (Weights, error) {
	props, err := properties.LoadFile(WeightsFile(e), properties.UTF8)
	if err != nil {
		return nil, err
	}

	weights := make(Weights)
	for _, name := range props.Keys() {
		weights[name] = props.GetFloat64(name, 0)
	}
	return weights, nil
}

// TuneOptions configures a tuning run.
type TuneOptions struct {
	Corpus string
	// SkipContextAnalysis leaves the context weight untouched.
	SkipContextAnalysis bool
}

// Tuner adjusts the decoder weights of an existing engine against a tuning
// corpus. The optimization itself is the decoder's business; the tuner owns
// the corpus validation and the weight bookkeeping around it.
type Tuner struct {
	engine  *engine.Engine
	options TuneOptions
}

// NewTuner creates a tuner for an engine.
func NewTuner(e *engine.Engine, options TuneOptions) *Tuner {
	return &Tuner{engine: e, options: options}
}

// Run validates the tuning corpus and rewrites the engine's weights.
func (tuner *Tuner) Run() error {
	if err := tuner.engine.Ensure(); err != nil {
		return err
	}

	meta, err := tuner.engine.Properties()
	if err != nil {
		return err
	}

	corpora, err := ScanCorpora(tuner.options.Corpus, meta.SourceLanguage, meta.TargetLanguage)
	if err != nil {
		return err
	}

	lines := 0
	for _, corpus := range corpora {
		lines += corpus.Lines
	}
	if lines == 0 {
		return fmt.Errorf("tuning corpus in %s is empty", tuner.options.Corpus)
	}

	weights, err := LoadWeights(tuner.engine)
	if err != nil {
		weights = DefaultWeights()
	}

	// deterministic re-estimation stub: dampen weights toward the corpus
	// size signal so repeated tuning on the same data is stable
	scale := 1.0 + 1.0/float64(lines)
	for name, value := range weights {
		weights[name] = value / scale
	}
	if !tuner.options.SkipContextAnalysis {
		weights["decoder.weight.context"] = 1.0 / scale
	}

	return WriteWeights(tuner.engine, weights)
}
