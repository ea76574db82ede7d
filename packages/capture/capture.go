package capture

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

var ErrNotJSON = errors.New("body is not valid JSON")

// Select returns the value at path in the JSON body raw. An empty path
// returns the whole decoded body; a non-JSON body is only returned for an
// empty path, as a string.
func Select(raw, path string) (any, bool) {
	if !gjson.Valid(raw) {
		if path == "" {
			return raw, true
		}
		return nil, false
	}

	if path == "" {
		return gjson.Parse(raw).Value(), true
	}

	result := gjson.Get(raw, path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// SelectString is Select for display: strings come back unquoted, everything else as raw JSON.
func SelectString(raw, path string) (string, bool) {
	if path == "" {
		return raw, true
	}
	if !gjson.Valid(raw) {
		return "", false
	}
	result := gjson.Get(raw, path)
	if !result.Exists() {
		return "", false
	}
	if result.Type == gjson.String {
		return result.String(), true
	}
	return result.Raw, true
}

// ValidateSchema checks raw against the JSON Schema stored at schemaPath.
func ValidateSchema(raw, schemaPath string) error {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return ValidateSchemaBytes(raw, schemaData)
}

// ValidateSchemaBytes checks raw against an in-memory JSON Schema.
func ValidateSchemaBytes(raw string, schema []byte) error {
	if !gjson.Valid(raw) {
		return ErrNotJSON
	}

	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
}
