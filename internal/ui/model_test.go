package ui

import (
	"context"
	"fmt"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/render"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/table"
)

func people(n int) []source.Record {
	out := make([]source.Record, n)
	for i := range out {
		out[i] = source.Record{"name": fmt.Sprintf("person%02d", i+1), "age": 20 + i}
	}
	return out
}

func newTestModel(t *testing.T, data any, opts table.Options) *Model {
	t.Helper()
	if len(opts.Fields) == 0 {
		opts.Fields = []field.Field{field.Plain("name"), field.Described("age", "Age", nil)}
	}
	tbl, err := table.New(context.Background(), data, opts)
	require.NoError(t, err)
	t.Cleanup(tbl.Close)
	return New(context.Background(), tbl, Options{Render: render.Options{NoColor: true}})
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyPressMsg
		switch k {
		case "enter":
			msg = tea.KeyPressMsg{Code: tea.KeyEnter}
		case "esc":
			msg = tea.KeyPressMsg{Code: tea.KeyEscape}
		case "backspace":
			msg = tea.KeyPressMsg{Code: tea.KeyBackspace}
		case "left":
			msg = tea.KeyPressMsg{Code: tea.KeyLeft}
		case "right":
			msg = tea.KeyPressMsg{Code: tea.KeyRight}
		default:
			r := []rune(k)[0]
			msg = tea.KeyPressMsg{Code: r, Text: k}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func TestPaging(t *testing.T) {
	m := newTestModel(t, people(25), table.Options{})
	assert.Equal(t, 1, m.TableView().Page)
	assert.False(t, m.TableView().HasPrevious)

	press(m, "l")
	assert.Equal(t, 2, m.TableView().Page)
	press(m, "right")
	v := m.TableView()
	assert.Equal(t, 3, v.Page)
	assert.False(t, v.HasNext)
	assert.Len(t, v.Cells, 5)

	press(m, "h", "left")
	assert.Equal(t, 1, m.TableView().Page)
}

func TestSortShortcuts(t *testing.T) {
	m := newTestModel(t, people(3), table.Options{})

	press(m, "1")
	v := m.TableView()
	assert.True(t, v.Columns[0].Active)
	assert.False(t, v.Columns[0].Ascending)
	assert.Equal(t, "person03", v.Cells[0][0])

	press(m, "2")
	v = m.TableView()
	assert.True(t, v.Columns[1].Active)
	assert.False(t, v.Columns[1].Ascending)
	assert.Equal(t, "22", v.Cells[0][1])

	press(m, "9")
	assert.True(t, m.TableView().Columns[1].Active)
}

func TestFilterEditing(t *testing.T) {
	m := newTestModel(t, people(25), table.Options{})

	press(m, "/")
	require.True(t, m.Editing())
	typeText(m, "person0")
	press(m, "enter")
	assert.False(t, m.Editing())
	v := m.TableView()
	assert.Equal(t, "person0", v.Filter)
	assert.Equal(t, 9, v.Total)

	press(m, "/")
	typeText(m, "zzz")
	press(m, "esc")
	assert.False(t, m.Editing())
	assert.Equal(t, "person0", m.TableView().Filter)

	press(m, "x")
	assert.Equal(t, "", m.TableView().Filter)
	assert.Equal(t, 25, m.TableView().Total)
}

func TestRowsAndPageEditing(t *testing.T) {
	m := newTestModel(t, people(25), table.Options{})

	press(m, "r", "backspace", "backspace")
	typeText(m, "5")
	press(m, "enter")
	assert.Equal(t, 5, m.TableView().RowsPerPage)
	assert.Equal(t, 5, m.TableView().PageCount)

	press(m, "g", "backspace")
	typeText(m, "4")
	press(m, "enter")
	v := m.TableView()
	assert.Equal(t, 4, v.Page)
	assert.Equal(t, "person16", v.Cells[0][0])

	press(m, "r", "backspace")
	typeText(m, "abc")
	press(m, "enter")
	assert.Equal(t, 5, m.TableView().RowsPerPage)
}

func TestDataChangedMsg(t *testing.T) {
	coll, err := source.NewCollection(people(2))
	require.NoError(t, err)
	notified := 0
	m := newTestModel(t, coll, table.Options{OnDataChange: func() { notified++ }})

	coll.Insert(source.Record{"name": "zed", "age": 99})
	assert.Equal(t, 1, notified)
	assert.Equal(t, 2, m.TableView().Total)

	m.Update(DataChangedMsg{})
	assert.Equal(t, 3, m.TableView().Total)
}

func TestHeaderClick(t *testing.T) {
	m := newTestModel(t, people(3), table.Options{})
	row, spans := render.HeaderLayout(m.TableView(), render.Options{})
	require.Len(t, spans, 2)

	m.Update(tea.MouseClickMsg{X: spans[1].Start, Y: row, Button: tea.MouseLeft})
	assert.True(t, m.TableView().Columns[1].Active)

	m.Update(tea.MouseClickMsg{X: spans[0].Start, Y: row + 1, Button: tea.MouseLeft})
	assert.True(t, m.TableView().Columns[1].Active)
}

func TestQuitAndHelp(t *testing.T) {
	m := newTestModel(t, people(3), table.Options{})

	press(m, "?")
	assert.Contains(t, m.Render(), "edit filter")
	press(m, "q")
	assert.NotContains(t, m.Render(), "edit filter")

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestRender(t *testing.T) {
	m := newTestModel(t, people(3), table.Options{})
	out := m.Render()
	assert.Contains(t, out, "name ▲")
	assert.Contains(t, out, "page 1/1")
	assert.Contains(t, out, "q quit")

	press(m, "/")
	assert.Contains(t, m.Render(), "filter: ")
}

func TestInertTable(t *testing.T) {
	tbl := table.Mount(context.Background(), 42, table.Options{})
	m := New(context.Background(), tbl, Options{})
	assert.True(t, m.TableView().Inert)

	assert.Nil(t, press(m, "l"))
	assert.Nil(t, press(m, "1"))
	assert.NotNil(t, press(m, "q"))
}

func TestBridgeWithoutProgram(t *testing.T) {
	var b Bridge
	b.Notify()
	assert.True(t, b.pending)

	calls := 0
	d := Bridge{Detached: func() { calls++ }}
	d.Notify()
	assert.Equal(t, 1, calls)
	assert.False(t, d.pending)
}
