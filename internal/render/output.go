package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/rtable/internal/table"
)

// Output formats understood by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted output format names.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// JSON renders the view as indented JSON.
func JSON(v table.View) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// YAML renders the view as YAML.
func YAML(v table.View) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.String(), nil
}

// Render renders v in the named format.
func Render(v table.View, format string, opts Options) (string, error) {
	switch format {
	case "", FormatTable:
		return Table(v, opts), nil
	case FormatJSON:
		return JSON(v)
	case FormatYAML:
		return YAML(v)
	default:
		return "", fmt.Errorf("unsupported output format %q (want one of %v)", format, Formats)
	}
}
