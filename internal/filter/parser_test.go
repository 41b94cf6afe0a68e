package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "only whitespace", input: "   \t ", want: nil},
		{name: "single word", input: "alice", want: []string{"alice"}},
		{name: "words", input: "alice bob", want: []string{"alice", "bob"}},
		{name: "repeated spaces", input: "alice   bob", want: []string{"alice", "bob"}},
		{name: "double quoted phrase", input: `alice "bob smith" carol`, want: []string{"alice", "bob smith", "carol"}},
		{name: "single quoted phrase", input: `'new york' city`, want: []string{"new york", "city"}},
		{name: "three word phrase", input: `"a b c"`, want: []string{"a b c"}},
		{name: "one word phrase", input: `"bob"`, want: []string{"bob"}},
		{name: "mixed quote chars", input: `'bob smith"`, want: []string{"bob smith"}},
		{name: "empty quotes dropped", input: `"" x`, want: []string{"x"}},
		{name: "unterminated absorbs rest", input: `a "b c d`, want: []string{"a", "b c d"}},
		{name: "lone quote opens phrase", input: `" b c"`, want: []string{" b c"}},
		{name: "quote inside word is literal", input: `o'neil`, want: []string{"o'neil"}},
		{name: "closing quote only", input: `bob"`, want: []string{`bob"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}
