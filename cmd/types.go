package cmd

import (
	"context"
)

// EngineRef is a created engine as recorded in the tool configuration.
type EngineRef struct {
	Name           string `json:"name"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	CreatedAt      string `json:"created_at"`
}

// MMTConfig is the persisted tool configuration.
type MMTConfig struct {
	Engines []EngineRef `json:"engines"`
}

// AppConfig bundles the runtime state shared by all commands.
type AppConfig struct {
	Context context.Context
	Config  *MMTConfig
}
