package source

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"

	"github.com/oakwood-commons/rtable/internal/query"
)

// DefaultCollectionName names collections created without WithName.
const DefaultCollectionName = "records"

// CollectionOption configures a Collection.
type CollectionOption func(*Collection) error

// WithName sets the collection name.
func WithName(name string) CollectionOption {
	return func(c *Collection) error {
		if name != "" {
			c.name = name
		}
		return nil
	}
}

// WithWhere restricts the collection to records matching a CEL predicate over
// the record variable _, for example `_.age >= 18`.
func WithWhere(expr string) CollectionOption {
	return func(c *Collection) error {
		if expr == "" {
			return nil
		}
		p, err := query.Compile(c.env, expr)
		if err != nil {
			return fmt.Errorf("invalid where expression: %w", err)
		}
		c.where = p
		return nil
	}
}

// WithLogger sets the logger used for predicate diagnostics.
func WithLogger(log logr.Logger) CollectionOption {
	return func(c *Collection) error {
		c.log = log
		return nil
	}
}

// Collection is an ordered in-memory Source that notifies subscribers when
// its records change. It is safe for concurrent use.
type Collection struct {
	name string
	env  *cel.Env
	log  logr.Logger

	mu      sync.RWMutex
	records []Record
	where   *query.Predicate
	// last is the most recently compiled filter. Count and Find for one
	// view share it; older filters are recompiled when they come back.
	last *query.Predicate

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func()
}

// NewCollection creates a Collection holding a copy of records.
func NewCollection(records []Record, opts ...CollectionOption) (*Collection, error) {
	env, err := query.NewCELEnv()
	if err != nil {
		return nil, err
	}
	c := &Collection{
		name:    DefaultCollectionName,
		env:     env,
		log:     logr.Discard(),
		records: slices.Clone(records),
		subs:    make(map[int]func()),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Len returns the number of stored records, ignoring any where predicate.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// First returns the first stored record.
func (c *Collection) First() (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 {
		return nil, false
	}
	return c.records[0], true
}

// Records returns a snapshot of the stored records.
func (c *Collection) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

// Insert appends records.
func (c *Collection) Insert(records ...Record) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	c.records = append(c.records, records...)
	c.mu.Unlock()
	c.notify()
}

// Update replaces the record at index i.
func (c *Collection) Update(i int, rec Record) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.records) {
		c.mu.Unlock()
		return fmt.Errorf("record index %d out of range [0,%d)", i, len(c.records))
	}
	c.records[i] = rec
	c.mu.Unlock()
	c.notify()
	return nil
}

// Remove deletes the record at index i.
func (c *Collection) Remove(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.records) {
		c.mu.Unlock()
		return fmt.Errorf("record index %d out of range [0,%d)", i, len(c.records))
	}
	c.records = slices.Delete(c.records, i, i+1)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Replace swaps the whole record set.
func (c *Collection) Replace(records []Record) {
	c.mu.Lock()
	c.records = slices.Clone(records)
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn to run after every change.
func (c *Collection) Subscribe(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Collection) notify() {
	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// predicate returns the compiled CEL program for expr, or nil when expr
// matches everything.
func (c *Collection) predicate(expr query.Expr) (*query.Predicate, error) {
	if query.IsAll(expr) {
		return nil, nil
	}
	src := query.CEL(expr)
	c.mu.RLock()
	p := c.last
	c.mu.RUnlock()
	if p != nil && p.String() == src {
		return p, nil
	}
	p, err := query.Compile(c.env, src)
	if err != nil {
		return nil, err
	}
	c.log.V(2).Info("compiled filter predicate", "collection", c.name, "expr", src)
	c.mu.Lock()
	c.last = p
	c.mu.Unlock()
	return p, nil
}

func (c *Collection) matching(ctx context.Context, p *query.Predicate) ([]Record, error) {
	c.mu.RLock()
	records := slices.Clone(c.records)
	where := c.where
	c.mu.RUnlock()

	out := records[:0]
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := evalAll(rec, where, p)
		if err != nil {
			// A record the predicate cannot evaluate, e.g. one missing a
			// referenced key, does not match.
			c.log.V(1).Info("skipping record", "collection", c.name, "index", i, "error", err.Error())
			continue
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func evalAll(rec Record, preds ...*query.Predicate) (bool, error) {
	for _, p := range preds {
		if p == nil {
			continue
		}
		ok, err := p.Eval(rec)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Find returns the matching records, sorted and windowed by opts.
func (c *Collection) Find(ctx context.Context, expr query.Expr, opts FindOptions) (iter.Seq2[Record, error], error) {
	p, err := c.predicate(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare filter for %s: %w", c.name, err)
	}
	return func(yield func(Record, error) bool) {
		records, err := c.matching(ctx, p)
		if err != nil {
			yield(nil, err)
			return
		}
		if opts.Sort.Key != "" {
			slices.SortStableFunc(records, func(a, b Record) int {
				return compareRecords(a, b, opts.Sort)
			})
		}
		for _, rec := range window(records, opts.Skip, opts.Limit) {
			if !yield(rec, nil) {
				return
			}
		}
	}, nil
}

// Count returns the number of records matching expr.
func (c *Collection) Count(ctx context.Context, expr query.Expr) (int, error) {
	p, err := c.predicate(expr)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare filter for %s: %w", c.name, err)
	}
	records, err := c.matching(ctx, p)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func window(records []Record, skip, limit int) []Record {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(records) {
		return nil
	}
	records = records[skip:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
