package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatCSV    Format = "csv"
)

// ValueKey holds non-object elements wrapped into records.
const ValueKey = "value"

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".csv":
		return FormatCSV
	default:
		return FormatAuto
	}
}

// LoadRecords reads a file and returns its records. The format comes from
// the file extension, falling back to content detection.
func LoadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRecordsBytes(data, FormatFromPath(path))
}

// LoadRecordsReader reads all of r and returns its records.
func LoadRecordsReader(r io.Reader, format Format) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return LoadRecordsBytes(data, format)
}

// LoadRecordsBytes parses data as format (FormatAuto detects it) and
// flattens the result into records:
//
//   - a top-level array yields one record per element
//   - an object whose only value is an array of objects (TOML [[records]])
//     yields that array
//   - any other object is a single record
//
// Elements that are not objects are wrapped as {"value": v}.
func LoadRecordsBytes(data []byte, format Format) ([]map[string]any, error) {
	input := strings.TrimSpace(string(data))
	if input == "" {
		return nil, errors.New("empty input")
	}
	if format == FormatAuto {
		format = Detect(input)
	}

	var (
		docs []any
		err  error
	)
	switch format {
	case FormatJSON:
		docs, err = decodeJSON(input)
	case FormatNDJSON:
		docs, err = decodeNDJSON(input)
	case FormatYAML:
		docs, err = decodeYAML(input)
	case FormatTOML:
		docs, err = decodeTOML(input)
	case FormatCSV:
		return decodeCSV(input)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(docs), nil
}

// Detect guesses the format of input.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}
	lines := strings.Split(input, "\n")
	if !strings.HasPrefix(input, "[") && isLikelyNDJSON(lines) {
		return FormatNDJSON
	}
	if isLikelyTOML(lines) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	if isLikelyCSV(lines) {
		return FormatCSV
	}
	return FormatYAML
}

func decodeJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

func decodeNDJSON(input string) ([]any, error) {
	var docs []any
	for i, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", i+1, err)
		}
		docs = append(docs, []any{obj})
	}
	return docs, nil
}

func decodeYAML(input string) ([]any, error) {
	var docs []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func decodeTOML(input string) ([]any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}

func decodeCSV(input string) ([]map[string]any, error) {
	r := csv.NewReader(bytes.NewBufferString(input))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// toRecords flattens decoded documents into records.
func toRecords(docs []any) []map[string]any {
	var out []map[string]any
	for _, doc := range docs {
		doc = Normalize(doc)
		switch v := doc.(type) {
		case []any:
			for _, e := range v {
				out = append(out, asRecord(e))
			}
		case map[string]any:
			if list, ok := soleRecordList(v); ok {
				for _, e := range list {
					out = append(out, asRecord(e))
				}
				continue
			}
			out = append(out, v)
		default:
			out = append(out, asRecord(v))
		}
	}
	return out
}

func asRecord(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{ValueKey: v}
}

func soleRecordList(m map[string]any) ([]any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	for _, v := range m {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return nil, false
		}
		for _, e := range list {
			if _, isMap := e.(map[string]any); !isMap {
				return nil, false
			}
		}
		return list, true
	}
	return nil, false
}

// isLikelyNDJSON: more than one non-empty line and a majority are one-line
// JSON objects.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

var (
	tomlKey     = `(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')`
	tomlSection = regexp.MustCompile(`^\[{1,2}` + tomlKey + `(?:\.` + tomlKey + `)*\]{1,2}$`)
	tomlPair    = regexp.MustCompile(`^` + tomlKey + `(?:\.` + tomlKey + `)*\s*=\s*.+$`)
)

// isLikelyTOML: any section header, or a majority of key = value lines.
func isLikelyTOML(lines []string) bool {
	pairs, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(trimmed) {
			return true
		}
		if tomlPair.MatchString(trimmed) {
			pairs++
		}
	}
	return nonEmpty > 0 && pairs > nonEmpty/2
}

// isLikelyCSV: at least two lines, every line has the same number of commas
// and no line looks like a YAML mapping.
func isLikelyCSV(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	commas := strings.Count(lines[0], ",")
	if commas == 0 {
		return false
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.Count(trimmed, ",") != commas || strings.HasPrefix(trimmed, "- ") || strings.Contains(trimmed, ": ") {
			return false
		}
	}
	return true
}
