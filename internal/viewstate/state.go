// Package viewstate holds the per-instance parameters of a table view:
// sort key and direction, page size, current page and filter text.
//
// A State is owned by one table and mutated from one event loop; it is not
// safe for concurrent use.
package viewstate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Direction is the sort direction: 1 ascending, -1 descending.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// DefaultRowsPerPage is used when Options.RowsPerPage is unset.
const DefaultRowsPerPage = 10

// ErrInvalidRowsPerPage is returned for a page size below 1.
var ErrInvalidRowsPerPage = errors.New("rows per page must be a positive integer")

// Param names a View State parameter in a Change.
type Param string

const (
	ParamSortKey       Param = "sortKey"
	ParamSortDirection Param = "sortDirection"
	ParamRowsPerPage   Param = "rowsPerPage"
	ParamCurrentPage   Param = "currentPage"
	ParamFilter        Param = "filter"
)

// Change describes one parameter update. When the update also moved the
// view back to the first page, PageReset is set and PrevPage holds the page
// it left; no separate ParamCurrentPage change is sent.
type Change struct {
	Param     Param
	Old       any
	New       any
	PageReset bool
	PrevPage  int
}

// Options seed a new State.
type Options struct {
	// Name prefixes the instance ID, usually the source name.
	Name          string
	SortKey       string
	SortDirection Direction
	RowsPerPage   int
	CurrentPage   int
	Filter        string
	// ResetPageOnChange moves back to the first page whenever the sort,
	// filter or page size changes.
	ResetPageOnChange bool
}

// State is the View State of one table instance.
type State struct {
	id        string
	sortKey   string
	direction Direction
	rpp       int
	page      int
	filter    string
	reset     bool

	nextSub int
	subs    map[int]func(Change)
	closed  bool
}

// New creates a State. A zero direction means ascending and a zero page size
// means DefaultRowsPerPage; a negative page size is rejected.
func New(opts Options) (*State, error) {
	rpp := opts.RowsPerPage
	switch {
	case rpp == 0:
		rpp = DefaultRowsPerPage
	case rpp < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidRowsPerPage, rpp)
	}
	dir := opts.SortDirection
	if dir != Descending {
		dir = Ascending
	}
	name := opts.Name
	if name == "" {
		name = "table"
	}
	return &State{
		id:        name + "-" + uuid.NewString(),
		sortKey:   opts.SortKey,
		direction: dir,
		rpp:       rpp,
		page:      opts.CurrentPage,
		filter:    opts.Filter,
		reset:     opts.ResetPageOnChange,
		subs:      make(map[int]func(Change)),
	}, nil
}

// ID returns the instance identifier, unique per State.
func (s *State) ID() string { return s.id }

func (s *State) SortKey() string          { return s.sortKey }
func (s *State) SortDirection() Direction { return s.direction }
func (s *State) RowsPerPage() int         { return s.rpp }
func (s *State) CurrentPage() int         { return s.page }
func (s *State) Filter() string           { return s.filter }

// SetSortKey changes the sort key.
func (s *State) SetSortKey(key string) {
	if key == s.sortKey {
		return
	}
	old := s.sortKey
	s.sortKey = key
	s.changed(Change{Param: ParamSortKey, Old: old, New: key})
}

// SetSortDirection changes the sort direction. Anything other than
// Descending is treated as Ascending.
func (s *State) SetSortDirection(d Direction) {
	if d != Descending {
		d = Ascending
	}
	if d == s.direction {
		return
	}
	old := s.direction
	s.direction = d
	s.changed(Change{Param: ParamSortDirection, Old: old, New: d})
}

// SetRowsPerPage changes the page size.
func (s *State) SetRowsPerPage(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRowsPerPage, n)
	}
	if n == s.rpp {
		return nil
	}
	old := s.rpp
	s.rpp = n
	s.changed(Change{Param: ParamRowsPerPage, Old: old, New: n})
	return nil
}

// SetCurrentPage changes the 0-based page. The value is not clamped.
func (s *State) SetCurrentPage(p int) {
	if p == s.page {
		return
	}
	old := s.page
	s.page = p
	s.notify(Change{Param: ParamCurrentPage, Old: old, New: p})
}

// SetFilter changes the raw filter text.
func (s *State) SetFilter(text string) {
	if text == s.filter {
		return
	}
	old := s.filter
	s.filter = text
	s.changed(Change{Param: ParamFilter, Old: old, New: text})
}

// ActivateSort handles a header activation: the active key flips the
// direction, any other key becomes active with the direction unchanged.
func (s *State) ActivateSort(key string) {
	if key == s.sortKey {
		s.SetSortDirection(s.direction.Flip())
		return
	}
	s.SetSortKey(key)
}

// Previous moves one page back without a lower bound.
func (s *State) Previous() { s.SetCurrentPage(s.page - 1) }

// Next moves one page forward without an upper bound.
func (s *State) Next() { s.SetCurrentPage(s.page + 1) }

// changed notifies c after applying the optional page reset, so
// subscribers see one change and a consistent state.
func (s *State) changed(c Change) {
	if s.reset && s.page != 0 {
		c.PageReset, c.PrevPage = true, s.page
		s.page = 0
	}
	s.notify(c)
}

// Subscribe registers fn for every future change. The returned function
// removes the subscription.
func (s *State) Subscribe(fn func(Change)) (cancel func()) {
	if s.closed || fn == nil {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Close drops every subscriber. Later changes are applied silently.
func (s *State) Close() {
	s.closed = true
	clear(s.subs)
}

func (s *State) notify(c Change) {
	if len(s.subs) == 0 {
		return
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn(c)
		}
	}
}
