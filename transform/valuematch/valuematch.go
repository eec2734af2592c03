// Package valuematch implements the value-matcher sum type objectSieve's
// filter configuration uses: a literal JSON value, a deep-subset
// object/array used for structural inclusion, or a predicate (§4.9).
package valuematch

import (
	"encoding/json"
	"reflect"
)

// Matcher decides whether an assembled JSON value (as produced by
// assemble.FullAssembler: map[string]any, []any, string, json.Number,
// bool, or nil) satisfies a configured condition.
type Matcher interface {
	Match(v any) bool
}

type matcherFunc func(any) bool

func (f matcherFunc) Match(v any) bool { return f(v) }

// Equal matches a value structurally equal to want.
func Equal(want any) Matcher {
	return matcherFunc(func(v any) bool { return scalarEqual(v, want) })
}

// Contains matches any value that is a structural superset of want: every
// key present in a want object must be present (and itself satisfy
// Contains) in the candidate object, and every element of a want array
// must have a matching element somewhere in the candidate array. Scalars
// fall back to equality.
func Contains(want any) Matcher {
	return matcherFunc(func(v any) bool { return isSubset(want, v) })
}

// Predicate wraps an arbitrary Go function as a Matcher.
func Predicate(f func(v any) bool) Matcher {
	return matcherFunc(f)
}

func isSubset(want, v any) bool {
	switch w := want.(type) {
	case map[string]any:
		vm, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for k, wv := range w {
			vv, ok := vm[k]
			if !ok || !isSubset(wv, vv) {
				return false
			}
		}
		return true
	case []any:
		va, ok := v.([]any)
		if !ok {
			return false
		}
		for _, wv := range w {
			found := false
			for _, vv := range va {
				if isSubset(wv, vv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return scalarEqual(v, want)
	}
}

// scalarEqual compares two assembled values, treating json.Number and any
// plain numeric literal a caller wrote in Go source (int, float64, ...)
// as equal when they denote the same number, since callers configuring a
// Matcher write ordinary Go literals but assembled values carry
// json.Number.
func scalarEqual(a, b any) bool {
	an, aIsNum := numericValue(a)
	bn, bIsNum := numericValue(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	return reflect.DeepEqual(a, b)
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
