package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation is returned when the loaded configuration does not
// match the embedded schema.
var ErrSchemaViolation = errors.New("configuration does not match schema")

//go:embed config.schema.json
var configSchema []byte

// Schema returns the JSON schema the configuration is validated against.
func Schema() []byte {
	out := make([]byte, len(configSchema))
	copy(out, configSchema)

	return out
}

func validateSchema(config *Config) error {
	schemaLoader := gojsonschema.NewBytesLoader(configSchema)
	inputLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, inputLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(problems, "; "))
}
