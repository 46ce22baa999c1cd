// Package ordering contains the comparators behind every listing order.
// This is part of the Functional Core - no I/O, only pure functions.
//
// All orders are stable and put missing keys after present ones, keeping the
// original relative order among the missing.
package ordering

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Timed is an item keyed by an optional timestamp.
type Timed[T any] struct {
	Item T
	At   time.Time // zero means unknown
}

// Named is an item keyed by an optional string.
type Named[T any] struct {
	Item T
	Key  string // empty means unknown
}

// ByTime sorts ascending by timestamp, unknown timestamps last.
func ByTime[T any](items []Timed[T]) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Timed[T]) int {
		return compareTime(a.At, b.At)
	})
	return unwrapTimed(sorted)
}

// ByTimeReversed sorts descending by timestamp; unknown timestamps still go last.
func ByTimeReversed[T any](items []Timed[T]) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Timed[T]) int {
		if a.At.IsZero() || b.At.IsZero() {
			return compareTime(a.At, b.At)
		}
		return b.At.Compare(a.At)
	})
	return unwrapTimed(sorted)
}

// ByName sorts ascending by key, case-insensitively, empty keys last.
func ByName[T any](items []Named[T]) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Named[T]) int {
		return compareName(a.Key, b.Key)
	})
	return unwrapNamed(sorted)
}

// ByNameReversed sorts descending by key; empty keys still go last.
func ByNameReversed[T any](items []Named[T]) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Named[T]) int {
		if a.Key == "" || b.Key == "" {
			return compareName(a.Key, b.Key)
		}
		return compareName(b.Key, a.Key)
	})
	return unwrapNamed(sorted)
}

// Earliest returns the smallest non-zero time, or zero when none is set.
func Earliest(times ...time.Time) time.Time {
	var out time.Time
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if out.IsZero() || t.Before(out) {
			out = t
		}
	}
	return out
}

// Latest returns the largest non-zero time, or zero when none is set.
func Latest(times ...time.Time) time.Time {
	var out time.Time
	for _, t := range times {
		if t.After(out) {
			out = t
		}
	}
	return out
}

func compareTime(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}

func compareName(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func unwrapTimed[T any](items []Timed[T]) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Item
	}
	return out
}

func unwrapNamed[T any](items []Named[T]) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Item
	}
	return out
}
