// Package llm - extractor.go provides schema-validated structured generation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema pairs a name with the JSON Schema the model output must satisfy.
type Schema struct {
	Name string
	Raw  string
}

// Extractor generates structured objects by prompting a Client and validating
// the raw JSON against the schema before unmarshaling. Output that fails
// validation is rejected rather than trusted.
type Extractor struct {
	client Client
}

// NewExtractor creates an Extractor backed by the given client.
func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client}
}

// Generate prompts the model and decodes the validated JSON into out.
func (e *Extractor) Generate(ctx context.Context, schema Schema, prompt string, out any) error {
	raw, err := e.client.GenerateJSON(ctx, buildPrompt(schema, prompt))
	if err != nil {
		return err
	}

	if err := validateAgainstSchema(schema, raw); err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s output: %w", schema.Name, err)
	}
	return nil
}

// buildPrompt appends the output contract to the task prompt.
func buildPrompt(schema Schema, prompt string) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nReturn ONLY a JSON object matching this JSON Schema, with no markdown and no explanation:\n")
	sb.WriteString(schema.Raw)
	sb.WriteString("\n")
	return sb.String()
}

// validateAgainstSchema checks the raw JSON against the declared schema.
func validateAgainstSchema(schema Schema, raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema.Raw),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s output: %w", schema.Name, err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("%s output rejected by schema: %s", schema.Name, strings.Join(issues, "; "))
	}
	return nil
}
