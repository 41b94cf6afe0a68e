package resolver

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

// LiveOptions configure a Live resolver.
type LiveOptions struct {
	// OnChange runs after every recomputation.
	OnChange func(Window, error)
	// OnDataChange, when set, replaces the direct recomputation that follows
	// a source change notification. Hosts whose state lives on an event loop
	// use it to schedule Refresh on that loop.
	OnDataChange func()
	Logger       logr.Logger
}

// Live keeps a Window current: it recomputes whenever the view state or the
// source data changes.
type Live struct {
	ctx    context.Context
	src    source.Source
	st     *viewstate.State
	fields []field.Field
	opts   LiveOptions
	log    logr.Logger

	mu      sync.Mutex
	win     Window
	err     error
	cancels []func()
	closed  bool
}

// NewLive resolves once and subscribes to st and, when it is a
// source.Notifier, to src.
func NewLive(ctx context.Context, src source.Source, st *viewstate.State, fields []field.Field, opts LiveOptions) *Live {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	l := &Live{ctx: ctx, src: src, st: st, fields: fields, opts: opts, log: log}

	l.cancels = append(l.cancels, st.Subscribe(func(c viewstate.Change) {
		l.log.V(1).Info("view state changed", "table", st.ID(), "param", c.Param, "old", c.Old, "new", c.New, "pageReset", c.PageReset)
		l.Refresh()
	}))
	if n, ok := src.(source.Notifier); ok {
		l.cancels = append(l.cancels, n.Subscribe(func() {
			l.log.V(1).Info("source data changed", "table", st.ID(), "source", src.Name())
			if opts.OnDataChange != nil {
				opts.OnDataChange()
				return
			}
			l.Refresh()
		}))
	}
	l.Refresh()
	return l
}

// Refresh recomputes the window now.
func (l *Live) Refresh() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	win, err := Resolve(l.ctx, l.src, l.st, l.fields)
	if err != nil {
		l.log.Error(err, "failed to resolve rows", "table", l.st.ID())
	}

	l.mu.Lock()
	l.win, l.err = win, err
	l.mu.Unlock()

	if l.opts.OnChange != nil {
		l.opts.OnChange(win, err)
	}
}

// Current returns the latest window and the error that produced it, if any.
func (l *Live) Current() (Window, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.win, l.err
}

// Close stops all subscriptions. It is safe to call more than once.
func (l *Live) Close() {
	l.mu.Lock()
	cancels := l.cancels
	l.cancels = nil
	l.closed = true
	l.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
