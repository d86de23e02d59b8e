// Package engine locates and describes the named, on-disk configuration and
// model sets served by a master/worker pair. Engines are built by the
// training pipeline and only referenced here.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultName is the engine used when no name is given.
const DefaultName = "default"

// Home resolves the root directory holding all engines, honoring $MMT_HOME.
func Home() string {
	if home := os.Getenv("MMT_HOME"); home != "" {
		return home
	}

	home, err := homedir.Dir()
	if err != nil {
		return ".modernmt"
	}
	return filepath.Join(home, ".modernmt")
}

// Engine is a named configuration/model set below the engines root.
type Engine struct {
	Name string
	Path string
}

// New resolves an engine by name, falling back to DefaultName.
func New(name string) *Engine {
	if name == "" {
		name = DefaultName
	}
	return &Engine{
		Name: name,
		Path: filepath.Join(Home(), "engines", name),
	}
}

// Exists reports whether the engine has been built.
func (engine *Engine) Exists() bool {
	_, err := os.Stat(engine.PropertiesFile())
	return err == nil
}

// Ensure fails when the engine does not exist yet.
func (engine *Engine) Ensure() error {
	if !engine.Exists() {
		return fmt.Errorf("engine '%s' not found in %s, run 'mmt create' first", engine.Name, engine.Path)
	}
	return nil
}

// ModelsDir holds the opaque model files of the engine.
func (engine *Engine) ModelsDir() string {
	return filepath.Join(engine.Path, "models")
}

// RuntimeDir holds pid files, node records and the worker status file.
func (engine *Engine) RuntimeDir() string {
	return filepath.Join(engine.Path, "runtime")
}

// LogsDir holds the per-node daemon logs.
func (engine *Engine) LogsDir() string {
	return filepath.Join(engine.RuntimeDir(), "logs")
}

// PropertiesFile is the engine metadata file.
func (engine *Engine) PropertiesFile() string {
	return filepath.Join(engine.Path, "engine.properties")
}

// PrepareRuntime creates the runtime directory tree.
func (engine *Engine) PrepareRuntime() error {
	return os.MkdirAll(engine.LogsDir(), 0755)
}

// PrepareLayout creates the full engine directory tree, used by the training
// pipeline when (re)building an engine.
func (engine *Engine) PrepareLayout() error {
	for _, dir := range []string{engine.ModelsDir(), engine.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// HasModels reports whether the engine carries a replicated model set, which
// is what a worker needs locally before serving.
func (engine *Engine) HasModels() bool {
	entries, err := os.ReadDir(engine.ModelsDir())
	return err == nil && len(entries) > 0
}

// Resolver adapts the engine layout to the cluster controller.
type Resolver struct{}

// Exists reports whether the named engine has been built.
func (Resolver) Exists(name string) bool {
	return New(name).Exists()
}

// RuntimeDir resolves the runtime directory of the named engine. It is a pure
// path lookup, status and stop must not create directories as a side effect.
func (Resolver) RuntimeDir(name string) string {
	return New(name).RuntimeDir()
}

// PrepareRuntime resolves and creates the runtime directory of the named
// engine. The engine itself may not exist yet: a worker-only instance
// attached to a remote master still needs a place for its runtime artifacts.
func (Resolver) PrepareRuntime(name string) (string, error) {
	engine := New(name)
	if err := engine.PrepareRuntime(); err != nil {
		return "", err
	}
	return engine.RuntimeDir(), nil
}

// ErrNoProperties is returned when an engine directory exists without its
// metadata file.
var ErrNoProperties = errors.New("engine.properties not found")
