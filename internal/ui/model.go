// Package ui is the interactive terminal surface for a table.
package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/rtable/internal/render"
	"github.com/oakwood-commons/rtable/internal/table"
)

// DataChangedMsg tells the model the source data changed.
type DataChangedMsg struct{}

type editMode int

const (
	editNone editMode = iota
	editFilter
	editRowsPerPage
	editPage
)

func (e editMode) prompt() string {
	switch e {
	case editFilter:
		return "filter: "
	case editRowsPerPage:
		return "rows per page: "
	case editPage:
		return "page: "
	default:
		return ""
	}
}

// Options configure the model.
type Options struct {
	Title   string
	KeyMode KeyMode
	Render  render.Options
}

// Model is the bubbletea model over one table.
type Model struct {
	ctx   context.Context
	table *table.Table
	opts  Options

	input textinput.Model
	edit  editMode

	width, height int
	view          table.View
	err           error
	showHelp      bool
}

// New creates a model for t.
func New(ctx context.Context, t *table.Table, opts Options) *Model {
	if opts.KeyMode == "" {
		opts.KeyMode = DefaultKeyMode
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 500
	ti.SetWidth(60)

	m := &Model{ctx: ctx, table: t, opts: opts, input: ti}
	m.refreshView()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// TableView returns the view the model last rendered from.
func (m *Model) TableView() table.View { return m.view }

// Editing reports whether an input line is open.
func (m *Model) Editing() bool { return m.edit != editNone }

func (m *Model) refreshView() {
	m.view, m.err = m.table.View(m.ctx)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-20, 10))
		return m, nil

	case DataChangedMsg:
		m.table.Refresh()
		m.refreshView()
		return m, nil

	case tea.MouseClickMsg:
		mouse := msg.Mouse()
		if mouse.Button != tea.MouseLeft || m.Editing() || m.table.Inert() {
			return m, nil
		}
		row, spans := render.HeaderLayout(m.view, m.renderOptions())
		if row < 0 || mouse.Y != row+m.headerOffset() {
			return m, nil
		}
		for _, s := range spans {
			if mouse.X >= s.Start && mouse.X < s.End {
				m.table.Handlers().ClickHeader(s.Key)
				m.refreshView()
				break
			}
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.Editing() {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg.String())
	}
	return m, nil
}

func (m *Model) updateEditing(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := m.input.Value()
		h := m.table.Handlers()
		switch m.edit {
		case editFilter:
			h.FilterChanged(strings.TrimSpace(value))
		case editRowsPerPage:
			h.RowsPerPageChanged(value)
		case editPage:
			h.PageNumberChanged(value)
		case editNone:
		}
		m.stopEditing()
		m.refreshView()
		return m, nil
	case "esc":
		m.stopEditing()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateBrowsing(key string) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		if key != "ctrl+c" {
			return m, nil
		}
	}
	action := ActionForKey(m.opts.KeyMode, key)
	if m.table.Inert() {
		if action == ActionQuit {
			return m, tea.Quit
		}
		return m, nil
	}
	if col, ok := ColumnForKey(key); ok {
		if col < len(m.view.Columns) {
			m.table.Handlers().ClickHeader(m.view.Columns[col].Key)
			m.refreshView()
		}
		return m, nil
	}

	h := m.table.Handlers()
	switch action {
	case ActionQuit:
		return m, tea.Quit
	case ActionPrevious:
		h.Previous()
	case ActionNext:
		h.Next()
	case ActionClearFilter:
		h.FilterChanged("")
	case ActionFilter:
		return m, m.startEditing(editFilter, m.view.Filter)
	case ActionRowsPerPage:
		return m, m.startEditing(editRowsPerPage, fmt.Sprint(m.view.RowsPerPage))
	case ActionPage:
		return m, m.startEditing(editPage, fmt.Sprint(m.view.Page))
	case ActionHelp:
		m.showHelp = true
		return m, nil
	case ActionNone:
		return m, nil
	}
	m.refreshView()
	return m, nil
}

func (m *Model) startEditing(mode editMode, value string) tea.Cmd {
	m.edit = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopEditing() {
	m.edit = editNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) renderOptions() render.Options {
	opts := m.opts.Render
	if m.width > 0 && (opts.Width == 0 || opts.Width > m.width) {
		opts.Width = m.width
	}
	return opts
}

// headerOffset is the number of lines drawn above the table body.
func (m *Model) headerOffset() int {
	if m.opts.Title != "" {
		return 1
	}
	return 0
}

// Render returns the screen content.
func (m *Model) Render() string {
	var b strings.Builder
	opts := m.renderOptions()
	if m.opts.Title != "" {
		title := m.opts.Title
		if !opts.NoColor {
			title = lipgloss.NewStyle().Bold(true).Render(title)
		}
		b.WriteString(title)
		b.WriteString("\n")
	}
	if m.err != nil {
		fmt.Fprintf(&b, "error: %v\n", m.err)
	} else {
		b.WriteString(render.Table(m.view, opts))
	}

	switch {
	case m.Editing():
		b.WriteString(m.edit.prompt())
		b.WriteString(m.input.View())
	case m.showHelp:
		b.WriteString(m.helpText())
	default:
		b.WriteString(m.statusLine())
	}
	return b.String()
}

func (m *Model) statusLine() string {
	line := "1-9 sort  ←/→ page  ? help  q quit"
	if m.opts.KeyMode == KeyModeEmacs {
		line = "1-9 sort  ←/→ page  f1 help  ctrl+q quit"
	}
	if m.opts.Render.NoColor {
		return line
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(line)
}

func (m *Model) helpText() string {
	rows := [][2]string{
		{"1-9", "sort by column (again to reverse)"},
		{"←/→", "previous / next page"},
	}
	keyFor := func(a Action) string {
		bindings := VimKeyBindings
		if m.opts.KeyMode == KeyModeEmacs {
			bindings = EmacsKeyBindings
		}
		for k, v := range bindings {
			if v == a {
				return k
			}
		}
		return ""
	}
	rows = append(rows,
		[2]string{keyFor(ActionFilter), "edit filter"},
		[2]string{keyFor(ActionClearFilter), "clear filter"},
		[2]string{keyFor(ActionRowsPerPage), "set rows per page"},
		[2]string{keyFor(ActionPage), "go to page"},
		[2]string{"enter / esc", "apply / cancel input"},
		[2]string{keyFor(ActionQuit), "quit"},
	)
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-12s %s\n", r[0], r[1])
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}
