// Package resolver computes the visible window of records for a view state.
package resolver

import (
	"context"
	"fmt"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/filter"
	"github.com/oakwood-commons/rtable/internal/query"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

// Window is one page of records plus the numbers pagination needs.
type Window struct {
	Records     []source.Record
	Total       int
	Page        int
	RowsPerPage int
	Query       query.Expr
}

// PageCount is ceil(Total / RowsPerPage).
func (w Window) PageCount() int {
	if w.RowsPerPage <= 0 {
		return 0
	}
	n := w.Total / w.RowsPerPage
	if w.Total%w.RowsPerPage != 0 {
		n++
	}
	return n
}

// HasNext reports whether records exist after this page.
func (w Window) HasNext() bool {
	return w.Page < w.PageCount()-1
}

// HasPrevious reports whether this is not the first page.
func (w Window) HasPrevious() bool {
	return w.Page > 0
}

// Resolve filters, counts, sorts and pages src according to st.
func Resolve(ctx context.Context, src source.Source, st *viewstate.State, fields []field.Field) (Window, error) {
	expr := query.Build(filter.Parse(st.Filter()), fields)
	w := Window{
		Page:        st.CurrentPage(),
		RowsPerPage: st.RowsPerPage(),
		Query:       expr,
	}

	total, err := src.Count(ctx, expr)
	if err != nil {
		return w, fmt.Errorf("failed to count %s: %w", src.Name(), err)
	}
	w.Total = total

	// Pages outside [0, PageCount) are empty; skipping the query also keeps
	// Page*RowsPerPage from overflowing.
	if w.Page < 0 || w.Page >= w.PageCount() {
		return w, nil
	}

	seq, err := src.Find(ctx, expr, source.FindOptions{
		Sort:  source.Sort{Key: st.SortKey(), Direction: int(st.SortDirection())},
		Skip:  w.Page * w.RowsPerPage,
		Limit: w.RowsPerPage,
	})
	if err != nil {
		return w, fmt.Errorf("failed to query %s: %w", src.Name(), err)
	}
	records, err := source.Collect(seq)
	if err != nil {
		return w, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	w.Records = records
	return w, nil
}
