package data

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/brickworld/brickworld/internal/world"
)

var (
	//go:embed schema/kinds.schema.json
	kindsSchemaSrc string
	//go:embed schema/level.schema.json
	levelSchemaSrc string

	kindsSchema = jsonschema.MustCompileString("kinds.schema.json", kindsSchemaSrc)
	levelSchema = jsonschema.MustCompileString("level.schema.json", levelSchemaSrc)
)

// validateYAML checks a YAML document against a schema. The document is
// passed through JSON first so numbers reach the validator as float64.
func validateYAML(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrConfiguration, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", world.ErrConfiguration, err)
	}
	return nil
}
