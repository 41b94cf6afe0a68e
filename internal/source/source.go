// Package source defines where table rows come from and provides the
// in-memory and SQL implementations.
package source

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/oakwood-commons/rtable/internal/query"
)

// Record is one row: a string-keyed document.
type Record = map[string]any

// ErrUnsupported is returned by From for data it cannot turn into a Source.
var ErrUnsupported = errors.New("unsupported data source")

// Sort orders a Find result by a single key. Direction is 1 for ascending
// and -1 for descending; an empty Key keeps the source order.
type Sort struct {
	Key       string
	Direction int
}

// FindOptions shape a Find result. A Limit of 0 means no limit.
type FindOptions struct {
	Sort  Sort
	Skip  int
	Limit int
}

// Source is a queryable, countable set of records.
//
// The sequence returned by Find is lazy and finite. Ranging over it again
// runs the query again against the current data.
type Source interface {
	Name() string
	Find(ctx context.Context, expr query.Expr, opts FindOptions) (iter.Seq2[Record, error], error)
	Count(ctx context.Context, expr query.Expr) (int, error)
}

// Notifier is implemented by sources that report data changes.
type Notifier interface {
	Subscribe(fn func()) (cancel func())
}

// Fetcher is a cursor-like value that yields its records on demand.
type Fetcher interface {
	Fetch() ([]Record, error)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// From turns data into a Source. It accepts a Source, a Fetcher, []Record
// or []any whose elements are all records. Anything else wraps
// ErrUnsupported.
func From(data any, opts ...CollectionOption) (Source, error) {
	switch d := data.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupported)
	case Source:
		return d, nil
	case Fetcher:
		records, err := d.Fetch()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch records: %w", err)
		}
		return NewCollection(records, opts...)
	case []Record:
		return NewCollection(d, opts...)
	case []any:
		records := make([]Record, 0, len(d))
		for i, v := range d {
			rec, ok := v.(Record)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not an object", ErrUnsupported, i, v)
			}
			records = append(records, rec)
		}
		return NewCollection(records, opts...)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, data)
	}
}
