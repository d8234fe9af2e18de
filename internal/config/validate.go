package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidateSettings checks raw settings against the embedded JSON schema
// before they are decoded into Config. Validating the raw map catches
// typos and out-of-range knobs that a weakly-typed unmarshal would
// silently coerce.
func ValidateSettings(settings map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		problems = append(problems, schemaErr.String())
	}
	sort.Strings(problems)

	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
