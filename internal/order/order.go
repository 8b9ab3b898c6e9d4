// Package order computes display permutations of the rows of a view.
package order

import (
	"cmp"
	"fmt"
	"slices"
)

type Criterion int

const (
	SourceFile Criterion = iota
	MetricIncr
	MetricDecr
	SearchMatch
	User
)

func (c Criterion) String() string {
	switch c {
	case MetricIncr:
		return "↑"
	case MetricDecr:
		return "↓"
	case SearchMatch:
		return "match"
	case User:
		return "user"
	default:
		return "-"
	}
}

// Next returns the following criterion; User is skipped unless hasUser.
func (c Criterion) Next(hasUser bool) Criterion {
	switch c {
	case SourceFile:
		return MetricIncr
	case MetricIncr:
		return MetricDecr
	case MetricDecr:
		return SearchMatch
	case SearchMatch:
		if hasUser {
			return User
		}
		return SourceFile
	default:
		return SourceFile
	}
}

func (c Criterion) Prev(hasUser bool) Criterion {
	switch c {
	case SourceFile:
		if hasUser {
			return User
		}
		return SearchMatch
	case MetricIncr:
		return SourceFile
	case MetricDecr:
		return MetricIncr
	case SearchMatch:
		return MetricDecr
	default:
		return SearchMatch
	}
}

type Metric int

const (
	PctIDWrtConsensus Metric = iota
	SeqLen
)

func (m Metric) String() string {
	if m == SeqLen {
		return "seq len"
	}
	return "%id (cons)"
}

// Short is the compact name used in the status line.
func (m Metric) Short() string {
	if m == SeqLen {
		return "len"
	}
	return "%id"
}

// Next toggles between the two metrics.
func (m Metric) Next() Metric {
	if m == SeqLen {
		return PctIDWrtConsensus
	}
	return SeqLen
}

func Identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Order returns the indices of values in ascending order of value; equal
// values keep their original relative order. [3, -2, 7] gives [1, 0, 2].
// Values that cannot be ordered (NaN) panic.
func Order[T cmp.Ordered](values []T) []int {
	for i, v := range values {
		if v != v {
			panic(fmt.Sprintf("order: value at %d is not orderable", i))
		}
	}
	idx := Identity(len(values))
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})
	return idx
}

// Inverse of a permutation: the screen line of each row.
func Inverse(ordering []int) []int {
	return Order(ordering)
}

// ByMetric orders rows by value, ascending or descending. Descending is the
// reverse of the ascending order, ties included.
func ByMetric(values []float64, descending bool) []int {
	ord := Order(values)
	if descending {
		slices.Reverse(ord)
	}
	return ord
}

// ByMatch puts rows with a match first, then the rest, each group in
// original order.
func ByMatch(n int, hasMatch func(int) bool) []int {
	out := make([]int, 0, n)
	var rest []int
	for i := 0; i < n; i++ {
		if hasMatch(i) {
			out = append(out, i)
		} else {
			rest = append(rest, i)
		}
	}
	return append(out, rest...)
}

// ByUser resolves each header of user to its row. Resolution stops at the
// first header that is not present, so the result may be shorter than
// headers.
func ByUser(headers, user []string) []int {
	rank := make(map[string]int, len(headers))
	for i, h := range headers {
		rank[h] = i
	}
	out := make([]int, 0, len(user))
	for _, h := range user {
		r, ok := rank[h]
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}

var criterionNames = map[Criterion]string{
	SourceFile:  "source",
	MetricIncr:  "metric-incr",
	MetricDecr:  "metric-decr",
	SearchMatch: "match",
	User:        "user",
}

// Name is the stable identifier written to session files.
func (c Criterion) Name() string {
	return criterionNames[c]
}

// ParseCriterion falls back to SourceFile for unknown names.
func ParseCriterion(name string) Criterion {
	for c, n := range criterionNames {
		if n == name {
			return c
		}
	}
	return SourceFile
}

func (m Metric) Name() string {
	if m == SeqLen {
		return "seq-len"
	}
	return "pct-id"
}

func ParseMetric(name string) Metric {
	if name == "seq-len" {
		return SeqLen
	}
	return PctIDWrtConsensus
}
