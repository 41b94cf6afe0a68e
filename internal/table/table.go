// Package table wires a data source, view state, handlers and a live
// resolver into one reactive table instance.
package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/handlers"
	"github.com/oakwood-commons/rtable/internal/query"
	"github.com/oakwood-commons/rtable/internal/resolver"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

// Options configure a Table.
type Options struct {
	// Name overrides the source name in the instance ID and logs.
	Name   string
	Fields []field.Field
	// SortKey defaults to the first field.
	SortKey           string
	Descending        bool
	RowsPerPage       int
	CurrentPage       int
	Filter            string
	ResetPageOnChange bool
	// Where is a CEL predicate applied to in-memory data.
	Where  string
	Logger logr.Logger
	// OnChange runs after the visible window is recomputed.
	OnChange func()
	// OnDataChange, when set, is called instead of recomputing directly
	// after the source reports new data; the host then calls Refresh.
	OnDataChange func()
}

// Table is one mounted table instance.
type Table struct {
	src      source.Source
	fields   []field.Field
	state    *viewstate.State
	handlers *handlers.Handlers
	live     *resolver.Live
	log      logr.Logger
}

// New builds a Table over data. See source.From for the accepted shapes.
func New(ctx context.Context, data any, opts Options) (*Table, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	collOpts := []source.CollectionOption{source.WithLogger(log)}
	if opts.Name != "" {
		collOpts = append(collOpts, source.WithName(opts.Name))
	}
	if opts.Where != "" {
		if _, isSource := data.(source.Source); isSource {
			log.Info("where predicate only applies to in-memory data, ignoring it", "where", opts.Where)
		} else {
			collOpts = append(collOpts, source.WithWhere(opts.Where))
		}
	}
	src, err := source.From(data, collOpts...)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields, err = inferFields(ctx, src)
		if err != nil {
			return nil, err
		}
	}

	sortKey := opts.SortKey
	if sortKey == "" && len(fields) > 0 {
		sortKey = fields[0].Key()
	}
	dir := viewstate.Ascending
	if opts.Descending {
		dir = viewstate.Descending
	}
	name := opts.Name
	if name == "" {
		name = src.Name()
	}
	st, err := viewstate.New(viewstate.Options{
		Name:              name,
		SortKey:           sortKey,
		SortDirection:     dir,
		RowsPerPage:       opts.RowsPerPage,
		CurrentPage:       opts.CurrentPage,
		Filter:            opts.Filter,
		ResetPageOnChange: opts.ResetPageOnChange,
	})
	if err != nil {
		return nil, err
	}
	log = log.WithValues("table", st.ID())

	t := &Table{
		src:      src,
		fields:   fields,
		state:    st,
		handlers: handlers.New(st, fields, log),
		log:      log,
	}
	t.live = resolver.NewLive(ctx, src, st, fields, resolver.LiveOptions{
		OnChange: func(resolver.Window, error) {
			if opts.OnChange != nil {
				opts.OnChange()
			}
		},
		OnDataChange: opts.OnDataChange,
		Logger:       log,
	})
	log.V(1).Info("table mounted", "source", src.Name(), "fields", field.Keys(fields))
	return t, nil
}

// Mount is New for hosts that cannot handle errors: a failure is logged and
// an inert table that renders nothing is returned.
func Mount(ctx context.Context, data any, opts Options) *Table {
	t, err := New(ctx, data, opts)
	if err != nil {
		log := opts.Logger
		if log.GetSink() == nil {
			log = logr.Discard()
		}
		if errors.Is(err, source.ErrUnsupported) {
			log.Error(err, "table data must be a collection, a cursor or a list of records")
		} else {
			log.Error(err, "failed to mount table")
		}
		return &Table{log: log}
	}
	return t
}

func inferFields(ctx context.Context, src source.Source) ([]field.Field, error) {
	seq, err := src.Find(ctx, query.All{}, source.FindOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to read first record of %s: %w", src.Name(), err)
	}
	for rec, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("failed to read first record of %s: %w", src.Name(), err)
		}
		return field.Infer(rec), nil
	}
	return nil, nil
}

// Inert reports whether the table failed to mount.
func (t *Table) Inert() bool { return t.state == nil }

// ID returns the instance identifier.
func (t *Table) ID() string {
	if t.Inert() {
		return ""
	}
	return t.state.ID()
}

// State returns the view state.
func (t *Table) State() *viewstate.State { return t.state }

// Handlers returns the interaction handlers.
func (t *Table) Handlers() *handlers.Handlers { return t.handlers }

// Fields returns the displayed fields.
func (t *Table) Fields() []field.Field { return t.fields }

// Source returns the data source.
func (t *Table) Source() source.Source { return t.src }

// Window returns the latest resolved window.
func (t *Table) Window() (resolver.Window, error) {
	if t.Inert() {
		return resolver.Window{}, nil
	}
	return t.live.Current()
}

// Refresh recomputes the visible window.
func (t *Table) Refresh() {
	if t.Inert() {
		return
	}
	t.live.Refresh()
}

// Close stops all subscriptions and tears down the view state.
func (t *Table) Close() {
	if t.Inert() {
		return
	}
	t.live.Close()
	t.state.Close()
	t.log.V(1).Info("table closed")
}
