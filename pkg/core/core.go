// Package core is the embedding API: it mounts a reactive table over
// caller data and exposes the gestures a host surface forwards to it.
package core

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/render"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/table"
	"github.com/oakwood-commons/rtable/internal/ui"
	"github.com/oakwood-commons/rtable/pkg/loader"
)

type (
	// Record is one row of data.
	Record = source.Record
	// Field is a displayed column.
	Field = field.Field
	// Formatter turns a raw value into its displayed value.
	Formatter = field.Formatter
	// View is the rendered state of a table.
	View = table.View
	// Column describes one header cell of a View.
	Column = table.Column
	// Source is a queryable, optionally change-notifying record store.
	Source = source.Source
	// Collection is the in-memory Source.
	Collection = source.Collection
)

// Output formats accepted by Render.
const (
	FormatTable = render.FormatTable
	FormatJSON  = render.FormatJSON
	FormatYAML  = render.FormatYAML
)

// Plain returns a field displayed under its own key.
func Plain(key string) Field { return field.Plain(key) }

// Described returns a field with a label and an optional formatter. A field
// with a formatter cannot be sorted.
func Described(key, label string, format Formatter) Field {
	return field.Described(key, label, format)
}

// NewCollection returns an in-memory source over records.
func NewCollection(records []Record) (*Collection, error) {
	return source.NewCollection(records)
}

// OpenSQL returns a source over a database table; see the CLI --sql-dsn
// flag for accepted DSNs.
func OpenSQL(dsn, tableName string) (*source.SQL, error) {
	return source.Open(dsn, tableName)
}

// LoadFile reads records from a JSON, NDJSON, YAML, TOML or CSV file.
func LoadFile(path string) ([]map[string]any, error) {
	return loader.LoadRecords(path)
}

// LoadBytes decodes records, detecting the format.
func LoadBytes(data []byte) ([]map[string]any, error) {
	return loader.LoadRecordsBytes(data, loader.FormatAuto)
}

// Option configures a mounted table.
type Option func(*table.Options)

// WithName sets the name used in the instance ID and logs.
func WithName(name string) Option {
	return func(o *table.Options) { o.Name = name }
}

// WithFields sets the displayed columns. Without it the columns are the
// keys of the first record.
func WithFields(fields ...Field) Option {
	return func(o *table.Options) { o.Fields = fields }
}

// WithSort sets the initial sort field and direction.
func WithSort(key string, descending bool) Option {
	return func(o *table.Options) {
		o.SortKey = key
		o.Descending = descending
	}
}

// WithRowsPerPage sets the page size.
func WithRowsPerPage(n int) Option {
	return func(o *table.Options) { o.RowsPerPage = n }
}

// WithPage sets the initial 0-based page.
func WithPage(page int) Option {
	return func(o *table.Options) { o.CurrentPage = page }
}

// WithFilter sets the initial filter text.
func WithFilter(text string) Option {
	return func(o *table.Options) { o.Filter = text }
}

// WithWhere restricts in-memory data with a CEL predicate over '_'.
func WithWhere(expr string) Option {
	return func(o *table.Options) { o.Where = expr }
}

// WithResetPageOnChange returns to the first page whenever the sort, filter
// or page size changes.
func WithResetPageOnChange() Option {
	return func(o *table.Options) { o.ResetPageOnChange = true }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *table.Options) { o.Logger = log }
}

// WithOnChange registers a callback run after every recomputation.
func WithOnChange(fn func()) Option {
	return func(o *table.Options) { o.OnChange = fn }
}

// Table is a mounted table.
type Table struct {
	t      *table.Table
	bridge *ui.Bridge
}

// New mounts a table over data: a Source, a slice of records or maps, or
// a value with a Fetch() ([]Record, error) method.
func New(ctx context.Context, data any, opts ...Option) (*Table, error) {
	bridge := &ui.Bridge{}
	t, err := table.New(ctx, data, buildOptions(opts, bridge))
	if err != nil {
		return nil, err
	}
	bridge.Detached = t.Refresh
	return &Table{t: t, bridge: bridge}, nil
}

// Mount is New for hosts that cannot handle errors. A table that failed to
// mount logs the reason and renders nothing.
func Mount(ctx context.Context, data any, opts ...Option) *Table {
	bridge := &ui.Bridge{}
	t := table.Mount(ctx, data, buildOptions(opts, bridge))
	bridge.Detached = t.Refresh
	return &Table{t: t, bridge: bridge}
}

// Source changes reach the table through bridge so that a running
// interactive view refreshes on its own event loop.
func buildOptions(opts []Option, bridge *ui.Bridge) table.Options {
	var o table.Options
	for _, opt := range opts {
		opt(&o)
	}
	o.OnDataChange = bridge.Notify
	return o
}

// ID returns the instance identifier, empty for an inert table.
func (t *Table) ID() string { return t.t.ID() }

// Inert reports whether the table failed to mount.
func (t *Table) Inert() bool { return t.t.Inert() }

// View returns the current view.
func (t *Table) View(ctx context.Context) (View, error) { return t.t.View(ctx) }

// Render renders the current view as table, json or yaml text.
func (t *Table) Render(ctx context.Context, format string, width int, noColor bool) (string, error) {
	v, err := t.t.View(ctx)
	if err != nil {
		return "", err
	}
	return render.Render(v, format, render.Options{Width: width, NoColor: noColor})
}

// ClickHeader activates sorting on key, reversing it when already active.
func (t *Table) ClickHeader(key string) {
	if h := t.t.Handlers(); h != nil {
		h.ClickHeader(key)
	}
}

// SetFilter replaces the filter text.
func (t *Table) SetFilter(text string) {
	if h := t.t.Handlers(); h != nil {
		h.FilterChanged(text)
	}
}

// SetRowsPerPage applies raw page-size input. Invalid input is ignored.
func (t *Table) SetRowsPerPage(raw string) {
	if h := t.t.Handlers(); h != nil {
		h.RowsPerPageChanged(raw)
	}
}

// SetPage applies raw 1-based page input. Invalid input is ignored.
func (t *Table) SetPage(raw string) {
	if h := t.t.Handlers(); h != nil {
		h.PageNumberChanged(raw)
	}
}

// Previous moves one page back.
func (t *Table) Previous() {
	if h := t.t.Handlers(); h != nil {
		h.Previous()
	}
}

// Next moves one page forward.
func (t *Table) Next() {
	if h := t.t.Handlers(); h != nil {
		h.Next()
	}
}

// Run opens the interactive table on the terminal until the user quits.
func (t *Table) Run(ctx context.Context, title string, progOpts ...tea.ProgramOption) error {
	if t.Inert() {
		return fmt.Errorf("table is not mounted")
	}
	return ui.Run(ctx, t.t, t.bridge, ui.Options{Title: title}, progOpts...)
}

// Close releases subscriptions.
func (t *Table) Close() { t.t.Close() }
