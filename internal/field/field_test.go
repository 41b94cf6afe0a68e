package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	record := map[string]any{
		"a":     map[string]any{"b": 5},
		"n":     map[string]any{"zero": 0, "empty": "", "no": false},
		"nil":   nil,
		"list":  []any{"x", map[string]any{"y": "deep"}},
		"typed": map[string]string{"k": "v"},
		"nan":   math.NaN(),
	}

	tests := []struct {
		name string
		key  string
		want any
	}{
		{name: "nested", key: "a.b", want: 5},
		{name: "top level map", key: "a", want: map[string]any{"b": 5}},
		{name: "missing top", key: "missing", want: nil},
		{name: "missing intermediate", key: "missing.b", want: nil},
		{name: "nil intermediate", key: "nil.b", want: nil},
		{name: "zero is lossy", key: "n.zero", want: nil},
		{name: "empty string is lossy", key: "n.empty", want: nil},
		{name: "false is lossy", key: "n.no", want: nil},
		{name: "nan is lossy", key: "nan", want: nil},
		{name: "slice index", key: "list.0", want: "x"},
		{name: "slice then map", key: "list.1.y", want: "deep"},
		{name: "slice out of range", key: "list.9", want: nil},
		{name: "typed map", key: "typed.k", want: "v"},
		{name: "descend into scalar", key: "a.b.c", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(record, tt.key))
		})
	}
}

func TestLookupStruct(t *testing.T) {
	type inner struct {
		City string `json:"city"`
	}
	type person struct {
		Name    string `json:"name"`
		Address *inner `json:"address"`
		secret  string
	}
	p := person{Name: "ada", Address: &inner{City: "London"}, secret: "x"}
	assert.Equal(t, "ada", Lookup(p, "name"))
	assert.Equal(t, "London", Lookup(&p, "address.city"))
	assert.Equal(t, "London", Lookup(p, "Address.City"))
	assert.Nil(t, Lookup(p, "secret"))
	assert.Nil(t, Lookup(person{Name: "bob"}, "address.city"))
}

func TestRawKeepsFalsyValues(t *testing.T) {
	record := map[string]any{"n": map[string]any{"zero": 0, "nil": nil}}

	v, ok := Raw(record, "n.zero")
	require.True(t, ok)
	assert.Equal(t, 0, v)

	v, ok = Raw(record, "n.nil")
	require.True(t, ok)
	assert.Nil(t, v)

	_, ok = Raw(record, "n.nil.deeper")
	assert.False(t, ok)

	_, ok = Raw(record, "n.missing")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	t.Run("nested value", func(t *testing.T) {
		got := Resolve(map[string]any{"a": map[string]any{"b": 5}}, Plain("a.b"))
		assert.Equal(t, 5, got)
	})
	t.Run("null intermediate formats to empty string", func(t *testing.T) {
		got := Resolve(map[string]any{"a": nil}, Plain("a.b"))
		assert.Equal(t, "", got)
	})
	t.Run("custom formatter sees raw value", func(t *testing.T) {
		var seen any
		f := Described("a.b", "B", func(v any) any {
			seen = v
			return "formatted"
		})
		got := Resolve(map[string]any{"a": map[string]any{"b": 7}}, f)
		assert.Equal(t, "formatted", got)
		assert.Equal(t, 7, seen)
	})
	t.Run("custom formatter receives nil for missing", func(t *testing.T) {
		f := Described("x", "", func(v any) any { return v == nil })
		assert.Equal(t, true, Resolve(map[string]any{}, f))
	})
}

func TestFieldVariants(t *testing.T) {
	p := Plain("name")
	assert.Equal(t, "name", p.Key())
	assert.Equal(t, "name", p.Label())
	assert.True(t, p.IsPlain())
	assert.True(t, p.Sortable())

	d := Described("user.email", "", nil)
	assert.Equal(t, "user.email", d.Label())
	assert.False(t, d.IsPlain())
	assert.True(t, d.Sortable())

	withFn := Described("created", "Created", func(v any) any { return v })
	assert.False(t, withFn.Sortable())
	assert.Equal(t, "Created", withFn.Label())
}

func TestInfer(t *testing.T) {
	fields := Infer(map[string]any{"_id": 1, "name": "a", "age": 3})
	assert.Equal(t, []string{"age", "name"}, Keys(fields))
}

func TestFromConfig(t *testing.T) {
	f, err := FromConfig("name")
	require.NoError(t, err)
	assert.True(t, f.IsPlain())

	f, err = FromConfig(map[string]any{"key": "email", "label": "E-mail"})
	require.NoError(t, err)
	assert.Equal(t, "E-mail", f.Label())
	assert.True(t, f.Sortable())

	f, err = FromConfig(map[string]any{"key": "name", "format": "upper"})
	require.NoError(t, err)
	assert.False(t, f.Sortable())
	assert.Equal(t, "ADA", Resolve(map[string]any{"name": "ada"}, f))

	_, err = FromConfig(map[string]any{"key": "name", "format": "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, err = FromConfig(map[string]any{"label": "x"})
	require.Error(t, err)

	_, err = FromConfig(42)
	require.Error(t, err)
}

func TestParseSpec(t *testing.T) {
	f, err := ParseSpec("user.name:Name:title")
	require.NoError(t, err)
	assert.Equal(t, "user.name", f.Key())
	assert.Equal(t, "Name", f.Label())
	assert.Equal(t, "Ada Lovelace", Resolve(map[string]any{"user": map[string]any{"name": "ada LOVELACE"}}, f))

	f, err = ParseSpec("age")
	require.NoError(t, err)
	assert.True(t, f.IsPlain())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", Display(nil))
	assert.Equal(t, "3", Display(float64(3)))
	assert.Equal(t, "2.5", Display(2.5))
	assert.Equal(t, "true", Display(true))
	assert.Equal(t, "42", Display(42))
	assert.Equal(t, `{"a":1}`, Display(map[string]any{"a": 1}))
	assert.Equal(t, `["x","y"]`, Display([]any{"x", "y"}))
}

func TestFormatters(t *testing.T) {
	date, ok := LookupFormatter("date")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", date("2024-03-01T10:00:00Z"))
	assert.Equal(t, "1970-01-02", date(float64(86400)))

	yesno, _ := LookupFormatter("yesno")
	assert.Equal(t, "yes", yesno(true))
	assert.Equal(t, "no", yesno(nil))

	title, _ := LookupFormatter("title")
	assert.Equal(t, "Alice Smith", title("aLICE smith"))
	assert.Equal(t, "Élan Über", title("élan über"))
	assert.Equal(t, "", title(nil))

	length, _ := LookupFormatter("len")
	assert.Equal(t, 2, length([]any{1, 2}))

	RegisterFormatter("shout", func(v any) any { return Display(v) + "!" })
	shout, ok := LookupFormatter("SHOUT")
	require.True(t, ok)
	assert.Equal(t, "hi!", shout("hi"))
	assert.Contains(t, FormatterNames(), "shout")
}
