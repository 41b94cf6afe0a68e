package source

import (
	"cmp"
	"math"
	"reflect"
	"strings"

	"github.com/oakwood-commons/rtable/internal/field"
)

// Sort ranks: values of different kinds order by rank before value.
const (
	rankMissing = iota
	rankNull
	rankNumber
	rankString
	rankBool
	rankOther
)

func rankOf(v any, found bool) int {
	if !found {
		return rankMissing
	}
	if v == nil {
		return rankNull
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // everything else ranks as other
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rankNumber
	case reflect.String:
		return rankString
	case reflect.Bool:
		return rankBool
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return rankNull
		}
	}
	return rankOther
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only numeric kinds reach here
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return math.NaN()
}

// compareValues orders two looked-up values. NaN sorts before other numbers.
func compareValues(a any, aFound bool, b any, bFound bool) int {
	ra, rb := rankOf(a, aFound), rankOf(b, bFound)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNumber:
		return cmp.Compare(toFloat(a), toFloat(b))
	case rankString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case rankBool:
		ab, bb := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankOther:
		return strings.Compare(field.Display(a), field.Display(b))
	}
	return 0
}

// compareRecords orders two records by key. Direction -1 reverses the order.
func compareRecords(a, b Record, s Sort) int {
	av, aok := field.Raw(a, s.Key)
	bv, bok := field.Raw(b, s.Key)
	c := compareValues(av, aok, bv, bok)
	if s.Direction < 0 {
		return -c
	}
	return c
}
