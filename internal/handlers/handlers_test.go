package handlers

import (
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

func newHandlers(t *testing.T) (*Handlers, *[]string) {
	t.Helper()
	st, err := viewstate.New(viewstate.Options{Name: "people", SortKey: "name"})
	require.NoError(t, err)
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})
	fields := []field.Field{
		field.Plain("name"),
		field.Plain("age"),
		field.Described("email", "E-mail", func(v any) any { return v }),
	}
	return New(st, fields, log), &lines
}

func TestClickHeader(t *testing.T) {
	h, logs := newHandlers(t)

	h.ClickHeader("name")
	assert.Equal(t, "name", h.State.SortKey())
	assert.Equal(t, viewstate.Descending, h.State.SortDirection())

	h.ClickHeader("age")
	assert.Equal(t, "age", h.State.SortKey())
	assert.Equal(t, viewstate.Descending, h.State.SortDirection())

	h.ClickHeader("email")
	h.ClickHeader("missing")
	assert.Equal(t, "age", h.State.SortKey())
	assert.Len(t, *logs, 2)
}

func TestFilterChanged(t *testing.T) {
	h, _ := newHandlers(t)
	h.FilterChanged(`alice "bob smith"`)
	assert.Equal(t, `alice "bob smith"`, h.State.Filter())
}

func TestRowsPerPageChanged(t *testing.T) {
	h, logs := newHandlers(t)

	h.RowsPerPageChanged(" 25 ")
	assert.Equal(t, 25, h.State.RowsPerPage())

	for _, raw := range []string{"abc", "", "0", "-5", "2.5"} {
		assert.NotPanics(t, func() { h.RowsPerPageChanged(raw) })
		assert.Equal(t, 25, h.State.RowsPerPage(), "input %q", raw)
	}
	require.Len(t, *logs, 5)
	assert.True(t, strings.Contains((*logs)[0], `"input"="abc"`), (*logs)[0])
}

func TestPageNumberChanged(t *testing.T) {
	h, logs := newHandlers(t)

	h.PageNumberChanged("3")
	assert.Equal(t, 2, h.State.CurrentPage())

	h.PageNumberChanged("0")
	assert.Equal(t, -1, h.State.CurrentPage())

	h.PageNumberChanged("x")
	assert.Equal(t, -1, h.State.CurrentPage())
	assert.Len(t, *logs, 1)
}

func TestPreviousNext(t *testing.T) {
	h, _ := newHandlers(t)
	h.Next()
	h.Next()
	h.Previous()
	assert.Equal(t, 1, h.State.CurrentPage())
}

func TestZeroLogger(t *testing.T) {
	st, err := viewstate.New(viewstate.Options{})
	require.NoError(t, err)
	h := &Handlers{State: st, Logger: logr.Logger{}}
	assert.NotPanics(t, func() {
		h.RowsPerPageChanged("abc")
		h.ClickHeader("x")
	})
}
