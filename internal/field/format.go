package field

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	formattersMu sync.RWMutex
	formatters   = map[string]Formatter{
		"upper": stringFormatter(strings.ToUpper),
		"lower": stringFormatter(strings.ToLower),
		"title": stringFormatter(titleCase),
		"json":  jsonFormatter,
		"yesno": yesNoFormatter,
		"len":   lenFormatter,
		"date":  dateFormatter,
	}
)

// RegisterFormatter makes a formatter available to config-driven fields.
// Registering an existing name replaces it.
func RegisterFormatter(name string, f Formatter) {
	formattersMu.Lock()
	defer formattersMu.Unlock()
	formatters[name] = f
}

// LookupFormatter returns the formatter registered under name.
func LookupFormatter(name string) (Formatter, bool) {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	f, ok := formatters[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// FormatterNames lists registered formatter names, sorted.
func FormatterNames() []string {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	names := make([]string, 0, len(formatters))
	for n := range formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Display renders a resolved value as cell text.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case bool:
		return strconv.FormatBool(t)
	case []byte:
		return string(t)
	}
	switch reflect.ValueOf(v).Kind() { //nolint:exhaustive // scalars fall through to fmt
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stringFormatter(fn func(string) string) Formatter {
	return func(v any) any {
		if v == nil {
			return ""
		}
		return fn(Display(v))
	}
}

// titleCase builds a caser per call; a cases.Caser keeps state and must
// not be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func jsonFormatter(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return Display(v)
	}
	return string(b)
}

func yesNoFormatter(v any) any {
	if truthy(v) {
		return "yes"
	}
	return "no"
}

func lenFormatter(v any) any {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only sized kinds have a length
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len()
	default:
		return 1
	}
}

// dateFormatter renders RFC 3339 strings, unix seconds and time.Time as a
// calendar date. Anything else is shown unchanged.
func dateFormatter(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.DateOnly)
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UTC().Format(time.DateOnly)
		}
		return t
	case float64:
		return time.Unix(int64(t), 0).UTC().Format(time.DateOnly)
	case int64:
		return time.Unix(t, 0).UTC().Format(time.DateOnly)
	case int:
		return time.Unix(int64(t), 0).UTC().Format(time.DateOnly)
	default:
		return v
	}
}
