package app

import (
	"regexp"
	"strings"

	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/tree"
)

// Ordering maps screen line to rank.
func (a *App) Ordering() []int {
	return a.ordering
}

// ReverseOrdering maps rank to screen line.
func (a *App) ReverseOrdering() []int {
	return a.reverseOrdering
}

func (a *App) RankToScreenline(r Rank) int {
	if int(r) < 0 || int(r) >= len(a.reverseOrdering) {
		return int(r)
	}
	return a.reverseOrdering[r]
}

func (a *App) ScreenlineToRank(line int) Rank {
	if line < 0 || line >= len(a.ordering) {
		return Rank(line)
	}
	return Rank(a.ordering[line])
}

func (a *App) SeqOrdering() order.Criterion {
	return a.criterion
}

func (a *App) Metric() order.Metric {
	return a.metric
}

func (a *App) UserOrdering() []string {
	return a.userOrdering
}

func (a *App) NextOrderingCriterion() {
	a.criterion = a.criterion.Next(a.userOrdering != nil)
	a.recomputeOrdering()
}

func (a *App) PrevOrderingCriterion() {
	a.criterion = a.criterion.Prev(a.userOrdering != nil)
	a.recomputeOrdering()
}

func (a *App) NextMetric() {
	a.metric = a.metric.Next()
	a.recomputeOrdering()
}

// PrevMetric is NextMetric while there are only two metrics.
func (a *App) PrevMetric() {
	a.metric = a.metric.Next()
	a.recomputeOrdering()
}

func (a *App) OrderingStatusLabel() string {
	switch a.criterion {
	case order.MetricIncr, order.MetricDecr:
		return "o:" + a.metric.Short() + a.criterion.String()
	case order.SearchMatch:
		return "o:match"
	case order.User:
		return "o:tree"
	default:
		return "o:original"
	}
}

func (a *App) orderValues() []float64 {
	if a.metric == order.SeqLen {
		return a.alignment.RelativeSeqLen
	}
	return a.alignment.IDWrtConsensus
}

func (a *App) recomputeOrdering() {
	n := a.alignment.NumSeq()
	var ord []int
	switch a.criterion {
	case order.MetricIncr:
		ord = order.ByMetric(a.orderValues(), false)
	case order.MetricDecr:
		ord = order.ByMetric(a.orderValues(), true)
	case order.SearchMatch:
		if hasMatch := a.matchPredicate(); hasMatch != nil {
			ord = order.ByMatch(n, hasMatch)
		}
	case order.User:
		if a.userOrdering != nil {
			ord = order.ByUser(a.alignment.Headers, a.userOrdering)
			if len(ord) != n {
				a.logger.Warn("user ordering does not cover the view; keeping previous order",
					"view", a.current, "resolved", len(ord), "rows", n)
				ord = nil
				if len(a.ordering) == n {
					ord = a.ordering
				}
			}
		}
	}
	if ord == nil {
		ord = order.Identity(n)
	}
	a.ordering = ord
	a.reverseOrdering = order.Inverse(ord)
}

// matchPredicate reports whether a row has a span in the current sequence
// search or in any enabled saved search. It is nil when neither exists.
func (a *App) matchPredicate() func(int) bool {
	var enabled []search.Saved
	for _, s := range a.registry.List() {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	if a.seqSearch == nil && len(enabled) == 0 {
		return nil
	}
	return func(i int) bool {
		if a.seqSearch != nil && a.seqSearch.HasMatch(i) {
			return true
		}
		for _, s := range enabled {
			if i < len(s.Spans) && len(s.Spans[i]) > 0 {
				return true
			}
		}
		return false
	}
}

func (a *App) refreshMatchOrdering() {
	if a.criterion == order.SearchMatch {
		a.recomputeOrdering()
	}
}

// SetUserOrdering validates names against the view's headers and, if every
// name maps to a distinct header, orders by it. Names may be exact headers,
// the first word of a header, or a tree leaf spelling of it (spaces and dots
// as underscores, optional numeric prefix).
func (a *App) SetUserOrdering(names []string) error {
	headers := a.alignment.Headers
	if len(names) != len(headers) {
		return formatErr("ordering has %d names but the view has %d sequences", len(names), len(headers))
	}
	idx, err := newHeaderIndex(headers)
	if err != nil {
		return err
	}
	used := make([]bool, len(headers))
	resolved := make([]string, len(names))
	for i, name := range names {
		r, err := idx.resolve(name)
		if err != nil {
			return err
		}
		if used[r] {
			return formatErr("header %q is named twice in the ordering", headers[r])
		}
		used[r] = true
		resolved[i] = headers[r]
	}
	a.userOrdering = resolved
	a.criterion = order.User
	a.recomputeOrdering()
	return nil
}

// SetTreeOrderingFromTree orders the view by the leaf order of its tree.
func (a *App) SetTreeOrderingFromTree() error {
	if a.tree == nil {
		return formatErr("no tree for view %s", a.current)
	}
	_, leaves, err := tree.Layout(a.tree, nil)
	if err != nil {
		return &FormatError{Msg: "tree layout", Err: err}
	}
	return a.SetUserOrdering(leaves)
}

// TreeLeafRanks maps each leaf of the tree, in layout order, to its rank.
func (a *App) TreeLeafRanks() ([]Rank, error) {
	if a.tree == nil {
		return nil, formatErr("no tree for view %s", a.current)
	}
	_, leaves, err := tree.Layout(a.tree, nil)
	if err != nil {
		return nil, &FormatError{Msg: "tree layout", Err: err}
	}
	idx, err := newHeaderIndex(a.alignment.Headers)
	if err != nil {
		return nil, err
	}
	ranks := make([]Rank, len(leaves))
	for i, leaf := range leaves {
		r, err := idx.resolve(leaf)
		if err != nil {
			return nil, err
		}
		ranks[i] = Rank(r)
	}
	return ranks, nil
}

var numericPrefix = regexp.MustCompile(`^[0-9]+_`)

func normalizeName(s string) string {
	return strings.NewReplacer(" ", "_", ".", "_").Replace(s)
}

type headerIndex struct {
	exact      map[string]int
	token      map[string]int
	underscore map[string]int
	normalized map[string]int
}

const ambiguous = -1

func newHeaderIndex(headers []string) (*headerIndex, error) {
	idx := &headerIndex{
		exact:      map[string]int{},
		token:      map[string]int{},
		underscore: map[string]int{},
		normalized: map[string]int{},
	}
	put := func(m map[string]int, k string, i int) {
		if prev, ok := m[k]; ok && prev != i {
			m[k] = ambiguous
			return
		}
		m[k] = i
	}
	for i, h := range headers {
		if _, dup := idx.exact[h]; dup {
			return nil, formatErr("duplicate header %q", h)
		}
		idx.exact[h] = i
		if f := strings.Fields(h); len(f) > 0 {
			put(idx.token, f[0], i)
		}
		put(idx.underscore, strings.ReplaceAll(h, " ", "_"), i)
		put(idx.normalized, normalizeName(h), i)
	}
	return idx, nil
}

func (idx *headerIndex) resolve(name string) (int, error) {
	if i, ok := idx.exact[name]; ok {
		return i, nil
	}
	candidates := []struct {
		m   map[string]int
		key string
	}{
		{idx.token, name},
		{idx.underscore, name},
		{idx.normalized, normalizeName(name)},
		{idx.normalized, normalizeName(numericPrefix.ReplaceAllString(name, ""))},
	}
	for _, c := range candidates {
		i, ok := c.m[c.key]
		if !ok {
			continue
		}
		if i == ambiguous {
			return 0, formatErr("name %q matches more than one header", name)
		}
		return i, nil
	}
	return 0, formatErr("name %q does not match any header", name)
}
