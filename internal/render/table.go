// Package render draws a table view as text, JSON or YAML.
package render

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/rtable/internal/table"
)

const (
	ascIndicator  = "▲"
	descIndicator = "▼"
	sepWidth      = 2
	minColWidth   = 3
	maxColWidth   = 40
)

// Messages shown instead of rows.
const (
	EmptyMessage   = "No records."
	NoMatchMessage = "No matching records."
)

// Colors controls the rendered colors. Nil fields use the defaults.
type Colors struct {
	HeaderFG color.Color
	HeaderBG color.Color
	Active   color.Color
	Disabled color.Color
	Filter   color.Color
}

// Options control text rendering.
type Options struct {
	// Width is the available width in cells; 0 means unlimited.
	Width   int
	NoColor bool
	Colors  Colors
}

type styles struct {
	header   lipgloss.Style
	active   lipgloss.Style
	disabled lipgloss.Style
	filter   lipgloss.Style
}

func newStyles(c Colors) styles {
	pick := func(v, def color.Color) color.Color {
		if v == nil {
			return def
		}
		return v
	}
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(pick(c.HeaderFG, lipgloss.Color("12"))).Background(pick(c.HeaderBG, lipgloss.Color("236"))),
		active:   lipgloss.NewStyle().Bold(true).Foreground(pick(c.Active, lipgloss.Color("11"))).Background(pick(c.HeaderBG, lipgloss.Color("236"))),
		disabled: lipgloss.NewStyle().Foreground(pick(c.Disabled, lipgloss.Color("240"))),
		filter:   lipgloss.NewStyle().Foreground(pick(c.Filter, lipgloss.Color("14"))),
	}
}

// HeaderText is the header label of col including its sort indicator.
func HeaderText(col table.Column) string {
	if !col.Active {
		return col.Label
	}
	if col.Ascending {
		return col.Label + " " + ascIndicator
	}
	return col.Label + " " + descIndicator
}

// Table renders v as an aligned text table with a filter line and a
// pagination footer. An inert view renders as the empty string.
func Table(v table.View, opts Options) string {
	if v.Inert {
		return ""
	}
	st := newStyles(opts.Colors)
	paint := func(s lipgloss.Style, text string) string {
		if opts.NoColor {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	if v.Filter != "" {
		b.WriteString(paint(st.filter, "filter: "+v.Filter))
		b.WriteString("\n")
	}
	if v.Empty {
		b.WriteString(EmptyMessage)
		b.WriteString("\n")
		return b.String()
	}

	headers := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		headers[i] = HeaderText(col)
	}
	widths := ColumnWidths(headers, v.Cells, opts.Width)
	sep := strings.Repeat(" ", sepWidth)

	parts := make([]string, len(headers))
	for i, h := range headers {
		cell := padRight(truncate(h, widths[i]), widths[i])
		if v.Columns[i].Active {
			parts[i] = paint(st.active, cell)
		} else {
			parts[i] = paint(st.header, cell)
		}
	}
	b.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
	b.WriteString("\n")

	if len(v.Cells) == 0 {
		b.WriteString(NoMatchMessage)
		b.WriteString("\n")
	}
	for _, row := range v.Cells {
		parts = parts[:0]
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = oneLine(row[i])
			}
			parts = append(parts, padRight(truncate(cell, widths[i]), widths[i]))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		b.WriteString("\n")
	}

	b.WriteString(Footer(v, func(enabled bool, text string) string {
		if enabled {
			return text
		}
		return paint(st.disabled, text)
	}))
	b.WriteString("\n")
	return b.String()
}

// Footer renders the pagination line. style is applied to the previous and
// next controls with their enabled state.
func Footer(v table.View, style func(enabled bool, text string) string) string {
	pages := v.PageCount
	if pages == 0 {
		pages = 1
	}
	return fmt.Sprintf("%s  page %d/%d  %d records, %d per page  %s",
		style(v.HasPrevious, "‹ prev"), v.Page, pages, v.Total, v.RowsPerPage, style(v.HasNext, "next ›"))
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " ")
}

func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "…")
}

// ColumnWidths sizes columns to fit headers and cells. When the total exceeds
// available (and available > 0) columns are capped and shrunk in proportion
// to their natural width, never below a small minimum.
func ColumnWidths(headers []string, rows [][]string, available int) []int {
	n := len(headers)
	if n == 0 {
		return nil
	}
	widths := make([]int, n)
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < n {
				if w := runewidth.StringWidth(oneLine(cell)); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	if available <= 0 {
		return widths
	}

	usable := available - (n-1)*sepWidth
	if sum(widths) <= usable || usable <= 0 {
		return widths
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	if total := sum(widths); total > usable {
		for i := range widths {
			widths[i] = max(widths[i]*usable/total, minColWidth)
		}
	}
	for sum(widths) > usable {
		widest := 0
		for i := 1; i < n; i++ {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(ws []int) int {
	total := 0
	for _, w := range ws {
		total += w
	}
	return total
}

// Span is the horizontal extent of a header cell, end exclusive.
type Span struct {
	Key        string
	Start, End int
}

// HeaderLayout returns the line index of the header row in Table output and
// the span of every header cell, so pointer positions can be mapped back to
// columns.
func HeaderLayout(v table.View, opts Options) (int, []Span) {
	if v.Inert || v.Empty {
		return -1, nil
	}
	row := 0
	if v.Filter != "" {
		row = 1
	}
	headers := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		headers[i] = HeaderText(col)
	}
	widths := ColumnWidths(headers, v.Cells, opts.Width)
	spans := make([]Span, len(headers))
	x := 0
	for i, w := range widths {
		spans[i] = Span{Key: v.Columns[i].Key, Start: x, End: x + w}
		x += w + sepWidth
	}
	return row, spans
}
