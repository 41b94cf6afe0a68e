package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/oakwood-commons/rtable/internal/field"
)

// Match evaluates e against record directly in Go.
func Match(e Expr, record any) bool {
	switch t := e.(type) {
	case nil, All:
		return true
	case And:
		for _, c := range t.Children {
			if !Match(c, record) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range t.Children {
			if Match(c, record) {
				return true
			}
		}
		return false
	case Contains:
		v, ok := field.Raw(record, t.Path)
		return ok && ValueContains(v, t.Term)
	default:
		return false
	}
}

// ValueContains reports whether a stored value contains term, ignoring case.
// Scalars are compared on their display text and lists match when any element
// does. Maps and nil never match.
func ValueContains(v any, term string) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return containsFold(t, term)
	case []any:
		for _, e := range t {
			if ValueContains(e, term) {
				return true
			}
		}
		return false
	case fmt.Stringer:
		return containsFold(t.String(), term)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // scalars are handled below
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return false
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return containsFold(field.Display(v), term)
		}
		for i := 0; i < rv.Len(); i++ {
			if ValueContains(rv.Index(i).Interface(), term) {
				return true
			}
		}
		return false
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return ValueContains(rv.Elem().Interface(), term)
	}
	return containsFold(field.Display(v), term)
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
