package app

import (
	"slices"
	"strings"

	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/seq"
)

func (a *App) tool() search.Tool {
	return search.Tool{BinDir: a.tools.EmbossBinDir, Logger: a.logger}
}

func (a *App) runSeqSearch(pattern string, kind search.Kind) (*search.SeqState, error) {
	switch kind {
	case search.Emboss:
		return a.tool().Search(a.alignment.Headers, a.alignment.Sequences, pattern)
	default:
		st, err := search.SearchRegex(a.alignment.Sequences, pattern)
		if err != nil {
			return nil, &FormatError{Msg: "sequence search", Err: err}
		}
		return st, nil
	}
}

func (a *App) runSpans(query string, kind search.Kind) ([][]search.Span, error) {
	st, err := a.runSeqSearch(query, kind)
	if err != nil {
		return nil, err
	}
	return st.Spans, nil
}

func (a *App) recomputeSavedSearches() {
	a.registry.Recompute(a.runSpans)
}

func (a *App) LabelSearch() *search.LabelState {
	return a.labelSearch
}

// RegexSearchLabels replaces the label search and selects the matching rows,
// with the cursor on the first one. A malformed pattern clears the label
// search and leaves the selection as it is.
func (a *App) RegexSearchLabels(pattern string) error {
	st, err := search.SearchLabels(a.alignment.Headers, pattern)
	if err != nil {
		a.labelSearch = nil
		return &FormatError{Msg: "label search", Err: err}
	}
	a.labelSearch = st
	a.selected = map[seq.ID]bool{}
	a.cursor = nil
	for _, r := range st.Matches {
		a.selected[a.rowIDs[r]] = true
	}
	if r, ok := st.CurrentMatch(); ok {
		id := a.rowIDs[r]
		a.cursor = &id
	}
	if a.tree != nil {
		a.renderTree()
	}
	return nil
}

func (a *App) ResetLabelSearch() {
	a.labelSearch = nil
	if a.tree != nil {
		a.renderTree()
	}
}

func (a *App) IncrementCurrentLabelMatch(n int) {
	a.labelSearch.Step(n)
}

// CurrentLabelMatchScreenline is the screen line of the current label match.
func (a *App) CurrentLabelMatchScreenline() (int, bool) {
	r, ok := a.labelSearch.CurrentMatch()
	if !ok {
		return 0, false
	}
	return a.RankToScreenline(Rank(r)), true
}

// SetLabelMatchesFromTree makes ranks the label matches and the selection.
// lo and hi are the selected leaf range of the tree, or -1 when the ranks do
// not come from a leaf range. When no rank is in range the label search and
// the selection are cleared.
func (a *App) SetLabelMatchesFromTree(ranks []Rank, lo, hi int) {
	st := &search.LabelState{Pattern: "tree selection", Source: search.FromTree}
	if lo >= 0 && hi >= lo {
		st.TreeRange = &[2]int{lo, hi}
	}
	a.selected = map[seq.ID]bool{}
	for _, r := range ranks {
		if r < 0 || int(r) >= len(a.rowIDs) {
			continue
		}
		st.Matches = append(st.Matches, int(r))
		a.selected[a.rowIDs[r]] = true
	}
	a.pruneSelection()
	a.labelSearch = st
	if len(st.Matches) == 0 {
		a.labelSearch = nil
	}
	if a.tree != nil {
		a.renderTree()
	}
}

func (a *App) SeqSearch() *search.SeqState {
	return a.seqSearch
}

func (a *App) RegexSearchSequences(pattern string) error {
	return a.searchSequences(pattern, search.Regex)
}

func (a *App) EmbossSearchSequences(pattern string) error {
	if !a.tool().Configured() {
		return search.ErrToolNotConfigured
	}
	return a.searchSequences(pattern, search.Emboss)
}

func (a *App) searchSequences(pattern string, kind search.Kind) error {
	st, err := a.runSeqSearch(pattern, kind)
	if err != nil {
		a.seqSearch = nil
		if a.criterion == order.SearchMatch {
			a.recomputeOrdering()
		}
		return err
	}
	a.seqSearch = st
	if a.criterion == order.SearchMatch {
		a.recomputeOrdering()
	}
	return nil
}

func (a *App) ClearSeqSearch() {
	a.seqSearch = nil
	if a.criterion == order.SearchMatch {
		a.recomputeOrdering()
	}
}

// SeqSearchSpans returns the spans of the current search for row rank.
func (a *App) SeqSearchSpans(r Rank) []search.Span {
	if !a.seqSearch.HasMatch(int(r)) {
		return nil
	}
	return a.seqSearch.Spans[r]
}

// SeqSearchCounts returns total matches and the number of rows with a match.
func (a *App) SeqSearchCounts() (int, int) {
	if a.seqSearch == nil {
		return 0, 0
	}
	return a.seqSearch.Total, a.seqSearch.WithMatches
}

func (a *App) CurrentSeqMatch() (search.Match, bool) {
	return a.seqSearch.CurrentMatch()
}

func (a *App) IncrementCurrentSeqMatch(n int) {
	a.seqSearch.Step(n)
}

func (a *App) CurrentSeqSearchPattern() (string, bool) {
	if a.seqSearch == nil {
		return "", false
	}
	return a.seqSearch.Pattern, true
}

func (a *App) CurrentSeqSearchKind() (search.Kind, bool) {
	if a.seqSearch == nil {
		return 0, false
	}
	return a.seqSearch.Kind, true
}

// seqAnchor identifies a sequence match independently of row positions.
type seqAnchor struct {
	header     string
	start, end int
}

func (a *App) currentSeqAnchor() *seqAnchor {
	m, ok := a.seqSearch.CurrentMatch()
	if !ok {
		return nil
	}
	return &seqAnchor{header: a.alignment.Headers[m.SeqIndex], start: m.Start, end: m.End}
}

// relocate sets the current match to the one identified by anchor, or to
// the first match when it no longer exists.
func (a *App) relocate(st *search.SeqState, anchor *seqAnchor) {
	st.Current = 0
	if anchor == nil {
		return
	}
	for i, m := range st.Matches {
		if m.Start == anchor.start && m.End == anchor.end && a.alignment.Headers[m.SeqIndex] == anchor.header {
			st.Current = i
			return
		}
	}
}

// recomputeSeqSearch replays the current content search against the rows of
// the view. A search that no longer runs is dropped.
func (a *App) recomputeSeqSearch(anchor *seqAnchor) {
	if a.seqSearch == nil {
		return
	}
	st, err := a.runSeqSearch(a.seqSearch.Pattern, a.seqSearch.Kind)
	if err != nil {
		a.logger.Warn("search dropped", "pattern", a.seqSearch.Pattern, "err", err)
		a.seqSearch = nil
		return
	}
	a.relocate(st, anchor)
	a.seqSearch = st
}

// SelectSequencesWithCurrentMatch adds every row with a span in the current
// content search to the selection and returns how many rows matched.
func (a *App) SelectSequencesWithCurrentMatch() int {
	if a.seqSearch == nil {
		return 0
	}
	n := 0
	for r := range a.seqSearch.Spans {
		if a.seqSearch.HasMatch(r) {
			a.selected[a.rowIDs[r]] = true
			n++
		}
	}
	return n
}

func (a *App) SavedSearches() []search.Saved {
	return a.registry.List()
}

func (a *App) ActiveSearchIDs() []int {
	return a.registry.ActiveIDs()
}

func (a *App) AddSavedSearch(name, query string) error {
	return a.AddSavedSearchWithKind(name, query, search.Regex)
}

func (a *App) AddSavedSearchWithKind(name, query string, kind search.Kind) error {
	if strings.TrimSpace(query) == "" {
		return &FormatError{Msg: "saved search", Err: search.ErrEmptyQuery}
	}
	if kind == search.Emboss && !a.tool().Configured() {
		return search.ErrToolNotConfigured
	}
	spans, err := a.runSpans(strings.TrimSpace(query), kind)
	if err != nil {
		return err
	}
	if _, err := a.registry.Add(name, query, kind, spans); err != nil {
		return &FormatError{Msg: "saved search", Err: err}
	}
	a.views[a.current].ActiveSearchIDs = a.registry.ActiveIDs()
	a.refreshMatchOrdering()
	return nil
}

// DeleteSavedSearch removes the search at index i and renumbers the active
// search ids stored by every other view.
func (a *App) DeleteSavedSearch(i int) bool {
	id, ok := a.registry.Delete(i)
	if !ok {
		return false
	}
	for name, v := range a.views {
		if name != a.current {
			v.ActiveSearchIDs = search.RemapIDs(v.ActiveSearchIDs, id)
		}
	}
	a.views[a.current].ActiveSearchIDs = a.registry.ActiveIDs()
	a.refreshMatchOrdering()
	return true
}

func (a *App) ToggleSavedSearch(i int) bool {
	if !a.registry.Toggle(i) {
		return false
	}
	a.views[a.current].ActiveSearchIDs = a.registry.ActiveIDs()
	a.refreshMatchOrdering()
	return true
}

// treeLabelHeaders returns the headers of the current tree-derived label
// matches, which cannot be replayed from a pattern.
func (a *App) treeLabelHeaders() []string {
	if a.labelSearch == nil || a.labelSearch.Source != search.FromTree {
		return nil
	}
	headers := make([]string, 0, len(a.labelSearch.Matches))
	for _, r := range a.labelSearch.Matches {
		headers = append(headers, a.alignment.Headers[r])
	}
	return headers
}

// recomputeLabelSearch re-derives label matches against the rows of the view
// and keeps the current match on the same header when it survives.
func (a *App) recomputeLabelSearch(currentHeader string, treeHeaders []string) {
	ls := a.labelSearch
	if ls == nil {
		return
	}
	var st *search.LabelState
	if ls.Source == search.FromTree {
		st = &search.LabelState{Pattern: ls.Pattern, Source: search.FromTree}
		pos := make(map[string]int, len(a.alignment.Headers))
		for i, h := range a.alignment.Headers {
			pos[h] = i
		}
		for _, h := range treeHeaders {
			if r, ok := pos[h]; ok {
				st.Matches = append(st.Matches, r)
			}
		}
	} else {
		var err error
		st, err = search.SearchLabels(a.alignment.Headers, ls.Pattern)
		if err != nil {
			a.labelSearch = nil
			return
		}
	}
	st.Current = 0
	if currentHeader != "" {
		if i := slices.IndexFunc(st.Matches, func(r int) bool { return a.alignment.Headers[r] == currentHeader }); i >= 0 {
			st.Current = i
		}
	}
	a.labelSearch = st
}

func (a *App) currentLabelHeader() string {
	r, ok := a.labelSearch.CurrentMatch()
	if !ok {
		return ""
	}
	return a.alignment.Headers[r]
}
