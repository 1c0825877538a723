// Package enums holds the closed value sets shared by the models, the API
// and the event payloads. Values match the Postgres enum labels.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// set is the closed list of values of one enum type plus the folding rule
// applied to raw input before matching.
type set[T ~string] struct {
	kind   string
	fold   func(string) string
	values []T
}

func newSet[T ~string](kind string, fold func(string) string, values ...T) set[T] {
	return set[T]{kind: kind, fold: fold, values: values}
}

func (s set[T]) has(v T) bool {
	return slices.Contains(s.values, v)
}

func (s set[T]) parse(raw string) (T, error) {
	candidate := T(s.fold(raw))
	if s.has(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid %s %q", s.kind, raw)
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// exact only trims; event names are machine generated.
func exact(s string) string { return strings.TrimSpace(s) }
