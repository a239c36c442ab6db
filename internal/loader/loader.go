// Package loader reads ComplexSpec documents off disk and resolves
// sub-graph references relative to the file that names them.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentnodes/nodeflow/internal/catalog"
)

// Load parses the JSON document at path into a ComplexSpec (§6).
func Load(path string) (*catalog.ComplexSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %q: %w", path, err)
	}
	var spec catalog.ComplexSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("loader: parsing %q: %w", path, err)
	}
	return &spec, nil
}

// ResolveSubgraph resolves a Complex(path) reference relative to the
// directory of the enclosing specification file (§4.2, §6).
func ResolveSubgraph(originDir, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(originDir, ref)
}

// schemaDocument is a hand-written JSON-schema-shaped description of the
// program file format, emitted by --print-schemas (§6).
var schemaDocument = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title":   "ComplexSpec",
	"type":    "object",
	"required": []string{"inputs", "outputs", "end_node", "instances"},
	"properties": map[string]any{
		"inputs":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"outputs":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"end_node": map[string]any{"type": "string", "format": "uuid"},
		"defaults": map[string]any{"type": "object"},
		"instances": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []string{"operation", "inputs", "outputs"},
				"properties": map[string]any{
					"operation": map[string]any{"type": "object"},
					"inputs": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "array",
							"minItems": 4,
							"maxItems": 4,
						},
					},
					"outputs":           map[string]any{"type": "array"},
					"default_overrides": map[string]any{"type": "object"},
				},
			},
		},
	},
}

// PrintSchema returns the program-file JSON schema as an indented JSON
// document.
func PrintSchema() ([]byte, error) {
	return json.MarshalIndent(schemaDocument, "", "  ")
}
