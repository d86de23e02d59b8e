package engine

import (
	"bytes"
	"os"
	"time"

	"github.com/magiconair/properties"
)

// Properties is the metadata an engine carries in its engine.properties file.
type Properties struct {
	Name           string `properties:"engine.name"`
	SourceLanguage string `properties:"engine.source_lang"`
	TargetLanguage string `properties:"engine.target_lang"`
	CreatedAt      string `properties:"engine.creation_date"`
}

// Properties loads the engine metadata.
func (engine *Engine) Properties() (*Properties, error) {
	props, err := properties.LoadFile(engine.PropertiesFile(), properties.UTF8)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoProperties
		}
		return nil, err
	}

	var meta Properties
	if err := props.Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// WriteProperties persists the engine metadata, stamping the creation date
// when unset.
func (engine *Engine) WriteProperties(meta *Properties) error {
	if meta.Name == "" {
		meta.Name = engine.Name
	}
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	props := properties.NewProperties()
	props.Set("engine.name", meta.Name)
	props.Set("engine.source_lang", meta.SourceLanguage)
	props.Set("engine.target_lang", meta.TargetLanguage)
	props.Set("engine.creation_date", meta.CreatedAt)

	var buffer bytes.Buffer
	if _, err := props.Write(&buffer, properties.UTF8); err != nil {
		return err
	}

	return os.WriteFile(engine.PropertiesFile(), buffer.Bytes(), 0644)
}
