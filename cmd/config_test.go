package cmd

import (
	"testing"
)

func TestAppConfCarriesContext(t *testing.T) {
	// commands hand AppConf.Context to every blocking controller call,
	// it must be usable even when the home directory lookup failed
	if AppConf.Context == nil {
		t.Fatal("AppConf.Context is nil")
	}
	select {
	case <-AppConf.Context.Done():
		t.Error("AppConf.Context is already canceled")
	default:
	}
}

func getTestConfig() MMTConfig {
	return MMTConfig{
		Engines: []EngineRef{
			{Name: "default", SourceLanguage: "en", TargetLanguage: "it"},
			{Name: "europarl", SourceLanguage: "en", TargetLanguage: "de"},
		},
	}
}

func TestMMTConfig_FindEngineByName(t *testing.T) {
	config := getTestConfig()
	tests := []string{
		"default",
		"non-existing",
	}
	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			_, engine := config.FindEngineByName(test)

			switch test {
			case "default", "europarl":
				if engine == nil {
					t.Errorf("engine %s exists but not found", test)
				}
			default:
				if engine != nil {
					t.Errorf("engine %s not exists but found", test)
				}
			}
		})
	}
}

func TestMMTConfig_AddEngine(t *testing.T) {
	config := getTestConfig()

	config.AddEngine(EngineRef{Name: "books"})

	if len(config.Engines) != 3 {
		t.Errorf("after adding an engine size seems not valid")
	}
}

func TestMMTConfig_AddEngineReplacesExisting(t *testing.T) {
	config := getTestConfig()

	config.AddEngine(EngineRef{Name: "default", SourceLanguage: "fr", TargetLanguage: "es"})

	if len(config.Engines) != 2 {
		t.Errorf("re-adding an engine must replace the record, size is %d", len(config.Engines))
	}
	_, engine := config.FindEngineByName("default")
	if engine.SourceLanguage != "fr" {
		t.Errorf("engine record was not replaced")
	}
}

func TestMMTConfig_DeleteEngine(t *testing.T) {
	config := getTestConfig()

	config.DeleteEngine("default")

	if len(config.Engines) != 1 {
		t.Errorf("after removing an engine size seems not valid")
	}
}

func TestMMTConfig_DeleteNonExistingEngine(t *testing.T) {
	config := getTestConfig()

	err := config.DeleteEngine("non-existing")

	if err == nil {
		t.Errorf("after removing a non existing engine we should receive an error")
	}
}
