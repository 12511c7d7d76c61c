package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"marketplace-compat/internal/common/validation"

	"gopkg.in/yaml.v3"
)

// readDocument parses a YAML or JSON file into a generic value. JSON is a
// subset of YAML, so both go through the same decoder.
func readDocument(path string) (interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return doc, nil
}

// buildRequest assembles a request body from its parts, validates it and
// decodes it into dest.
func buildRequest(parts map[string]interface{}, validate func([]byte) *validation.ValidationResult, dest interface{}) error {
	raw, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	if result := validate(raw); !result.Valid {
		return fmt.Errorf("invalid request: %s", result.Error())
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
