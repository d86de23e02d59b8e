package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
)

// DefaultConfigPath is the directory holding the persisted tool config.
var DefaultConfigPath string

// AppConf carries the shared command state.
var AppConf = AppConfig{}

// NewAppConfig loads (or creates) the persisted configuration.
func NewAppConfig(debug bool) AppConfig {
	makeConfigIfNotExists()
	return AppConf
}

// WriteCurrentConfig persists the configuration as JSON.
func (config MMTConfig) WriteCurrentConfig() {
	configFileName := filepath.Join(DefaultConfigPath, "config.json")
	configJSON, err := json.Marshal(&config)

	if err == nil {
		err = os.WriteFile(configFileName, configJSON, 0666)

		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Fatal(err)
	}
}

// AddEngine records a created engine, replacing a previous record of the
// same name.
func (config *MMTConfig) AddEngine(engine EngineRef) {
	for i, v := range config.Engines {
		if v.Name == engine.Name {
			config.Engines[i] = engine
			return
		}
	}

	config.Engines = append(config.Engines, engine)
}

// FindEngineByName returns a recorded engine and its index, or -1.
func (config *MMTConfig) FindEngineByName(name string) (int, *EngineRef) {
	index := -1
	for i, v := range config.Engines {
		if v.Name == name {
			index = i
			return index, &v
		}
	}
	return index, nil
}

// DeleteEngine removes an engine record.
func (config *MMTConfig) DeleteEngine(name string) error {
	index, _ := config.FindEngineByName(name)

	if index == -1 {
		return errors.New(fmt.Sprintf("engine '%s' not found", name))
	}

	config.Engines = append(config.Engines[:index], config.Engines[index+1:]...)

	return nil
}

func init() {
	AppConf = AppConfig{
		Context: context.Background(),
	}

	usr, err := user.Current()
	if err != nil {
		return
	}
	if usr.HomeDir != "" {
		DefaultConfigPath = filepath.Join(usr.HomeDir, ".modernmt")
	}

	makeConfigIfNotExists()
}

func makeConfigIfNotExists() {
	if AppConf.Config != nil {
		return
	}

	if _, err := os.Stat(DefaultConfigPath); os.IsNotExist(err) {
		os.MkdirAll(DefaultConfigPath, 0755)
	}

	configFileName := filepath.Join(DefaultConfigPath, "config.json")

	if _, err := os.Stat(configFileName); os.IsNotExist(err) {
		AppConf.Config = new(MMTConfig)
		AppConf.Config.WriteCurrentConfig()
	} else {
		configFileContent, err := os.ReadFile(configFileName)

		if err != nil {
			log.Fatal(err)
		}

		AppConf.Config = new(MMTConfig)
		json.Unmarshal(configFileContent, AppConf.Config)
	}
}
