package table

import (
	"context"
	"fmt"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/query"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

// Column describes one header cell.
type Column struct {
	Key       string `json:"key" yaml:"key"`
	Label     string `json:"label" yaml:"label"`
	Sortable  bool   `json:"sortable" yaml:"sortable"`
	Active    bool   `json:"active" yaml:"active"`
	Ascending bool   `json:"ascending" yaml:"ascending"`
}

// View is everything a surface needs to draw the table.
type View struct {
	ID      string   `json:"id" yaml:"id"`
	Columns []Column `json:"columns" yaml:"columns"`
	// Cells holds display text, one slice per row in column order.
	Cells [][]string `json:"-" yaml:"-"`
	// Values holds formatted cell values keyed by field key.
	Values      []map[string]any `json:"rows" yaml:"rows"`
	Filter      string           `json:"filter" yaml:"filter"`
	RowsPerPage int              `json:"rowsPerPage" yaml:"rowsPerPage"`
	// Page is 1-based.
	Page        int  `json:"page" yaml:"page"`
	PageCount   int  `json:"pageCount" yaml:"pageCount"`
	Total       int  `json:"total" yaml:"total"`
	HasPrevious bool `json:"hasPrevious" yaml:"hasPrevious"`
	HasNext     bool `json:"hasNext" yaml:"hasNext"`
	// Empty is set when the source holds no records at all.
	Empty bool `json:"empty" yaml:"empty"`
	Inert bool `json:"-" yaml:"-"`
}

// View renders the current window.
func (t *Table) View(ctx context.Context) (View, error) {
	if t.Inert() {
		return View{Inert: true}, nil
	}
	win, err := t.live.Current()
	if err != nil {
		return View{}, err
	}

	all, err := t.src.Count(ctx, query.All{})
	if err != nil {
		return View{}, fmt.Errorf("failed to count %s: %w", t.src.Name(), err)
	}

	v := View{
		ID:          t.state.ID(),
		Columns:     t.columns(),
		Filter:      t.state.Filter(),
		RowsPerPage: win.RowsPerPage,
		Page:        win.Page + 1,
		PageCount:   win.PageCount(),
		Total:       win.Total,
		HasPrevious: win.HasPrevious(),
		HasNext:     win.HasNext(),
		Empty:       all == 0,
	}
	v.Cells, v.Values = t.cells(win.Records)
	return v, nil
}

func (t *Table) columns() []Column {
	cols := make([]Column, len(t.fields))
	for i, f := range t.fields {
		active := f.Key() == t.state.SortKey()
		cols[i] = Column{
			Key:       f.Key(),
			Label:     f.Label(),
			Sortable:  f.Sortable(),
			Active:    active,
			Ascending: active && t.state.SortDirection() == viewstate.Ascending,
		}
	}
	return cols
}

func (t *Table) cells(records []source.Record) ([][]string, []map[string]any) {
	cells := make([][]string, len(records))
	values := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make([]string, len(t.fields))
		vals := make(map[string]any, len(t.fields))
		for j, f := range t.fields {
			v := field.Resolve(rec, f)
			row[j] = field.Display(v)
			vals[f.Key()] = v
		}
		cells[i] = row
		values[i] = vals
	}
	return cells, values
}
