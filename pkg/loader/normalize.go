package loader

import (
	"fmt"
	"reflect"
)

const maxNormalizeDepth = 64

// Normalize converts decoded data into the shapes records use: string-keyed
// maps become map[string]any and slices become []any, recursively. Map keys
// that are not strings are formatted with %v.
func Normalize(v any) any {
	return normalize(v, 0)
}

func normalize(node any, depth int) any {
	if depth > maxNormalizeDepth {
		return node
	}
	switch v := node.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, val := range v {
			v[k] = normalize(val, depth+1)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = normalize(val, depth+1)
		}
		return v
	case []byte:
		return string(v)
	}

	rv := reflect.ValueOf(node)
	//exhaustive:ignore // only containers are rewritten
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			k := it.Key()
			key := fmt.Sprintf("%v", k.Interface())
			if k.Kind() == reflect.String {
				key = k.String()
			}
			out[key] = normalize(it.Value().Interface(), depth+1)
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface(), depth+1)
	default:
		return node
	}
}
