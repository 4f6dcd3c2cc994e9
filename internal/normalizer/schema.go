package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// draftSchema constrains the model's response to exactly the seven repair
// record input fields. Region and site name are required; year, month,
// detail, camera type and inspector may be omitted and are defaulted or
// overwritten afterwards. Any extra key is a schema violation, not a
// best-effort coercion candidate.
func draftSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"region":        map[string]any{"type": "string", "minLength": 1},
			"site_name":     map[string]any{"type": "string", "minLength": 1},
			"repair_year":   map[string]any{"type": "integer"},
			"repair_month":  map[string]any{"type": "integer", "minimum": 1, "maximum": 12},
			"repair_detail": map[string]any{"type": "string"},
			"camera_type":   map[string]any{"type": "string"},
			"inspector":     map[string]any{"type": "string"},
		},
		"required": []string{"region", "site_name"},
	}
}

// validateAgainstSchema validates data against schemaMap
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
