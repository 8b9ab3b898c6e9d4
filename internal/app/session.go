package app

import (
	"fmt"

	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/seq"
	"msafara/internal/session"
	"msafara/internal/tree"
)

// SaveSession writes the full engine state to path. Only the active view
// stores explicit match lists; other views store patterns.
func (a *App) SaveSession(path string) error {
	a.captureView()
	f := &session.File{
		Version:        session.Version,
		SourceFilename: a.filename,
		CurrentView:    a.current,
		Notes:          a.notes,
		NextColor:      a.registry.NextColor(),
	}
	for _, r := range a.records {
		f.Headers = append(f.Headers, r.Header)
		f.Sequences = append(f.Sequences, r.Sequence)
	}
	for _, id := range a.RejectedIDs() {
		f.RejectedIDs = append(f.RejectedIDs, int(id))
	}
	for _, s := range a.registry.List() {
		f.SavedSearches = append(f.SavedSearches, session.SearchEntry{
			ID: s.ID, Name: s.Name, Query: s.Query, Kind: s.Kind, Enabled: s.Enabled, Color: s.Color,
		})
	}
	for _, name := range a.viewNames {
		f.Views = append(f.Views, a.encodeView(a.views[name], name == a.current))
	}
	if err := session.Write(path, f); err != nil {
		return fmt.Errorf("save session %s: %w", path, err)
	}
	a.logger.Info("session saved", "path", path, "views", len(f.Views), "records", len(f.Headers))
	return nil
}

func intIDs(ids []seq.ID) []int {
	if ids == nil {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func seqIDs(ids []int, n int) []seq.ID {
	out := make([]seq.ID, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < n {
			out = append(out, seq.ID(id))
		}
	}
	return out
}

func (a *App) encodeView(v *View, current bool) session.View {
	sv := session.View{
		Name:            v.Name,
		SequenceIDs:     intIDs(v.SequenceIDs),
		TreeNewick:      v.TreeNewick,
		TreeLines:       v.TreeLines,
		ActiveSearchIDs: v.ActiveSearchIDs,
		UserOrdering:    v.UserOrdering,
		OutputPath:      v.OutputPath,
		Notes:           v.Notes,
		SelectedIDs:     intIDs(v.SelectedIDs),
		Ordering:        v.Criterion.Name(),
		Metric:          v.Metric.Name(),
	}
	if sv.ActiveSearchIDs == nil {
		sv.ActiveSearchIDs = []int{}
	}
	if v.CursorID != nil {
		id := int(*v.CursorID)
		sv.CursorID = &id
	}
	if cs := v.CurrentSearch; cs != nil {
		sv.CurrentSearch = &session.CurrentSearch{Kind: cs.Kind, Pattern: cs.Pattern}
		if current {
			cur := cs.Current
			sv.CurrentSearch.CurrentMatch = &cur
		}
	}
	if ls := v.LabelSearch; ls != nil {
		src := ls.Source
		sv.LabelSearch = &session.LabelSearch{Pattern: ls.Pattern, Source: &src, TreeRange: ls.TreeRange}
		if current {
			cur := ls.Current
			sv.LabelSearch.Current = &cur
			sv.LabelSearch.Matches = labelMatchRanks(a.labelSearch)
		} else if ls.Source == search.FromTree {
			// Tree selections cannot be replayed; keep them as ranks of the
			// stored id list.
			sv.LabelSearch.Matches = ranksIn(v.SequenceIDs, ls.MatchIDs)
		}
	}
	return sv
}

func labelMatchRanks(ls *search.LabelState) []int {
	if ls == nil {
		return nil
	}
	return append([]int{}, ls.Matches...)
}

func ranksIn(ids, match []seq.ID) []int {
	pos := make(map[seq.ID]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	out := []int{}
	for _, id := range match {
		if r, ok := pos[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// LoadSession reads path and rebuilds an engine from it.
func LoadSession(path string, opts ...Option) (*App, error) {
	f, err := session.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", path, err)
	}
	a, err := FromSessionFile(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", path, err)
	}
	a.logger.Info("session loaded", "path", path, "views", len(a.viewNames), "records", len(a.records))
	return a, nil
}

// FromSessionFile rebuilds the record store, the saved searches and every
// view of f, then opens the view f marks as current, or original when that
// view is missing.
func FromSessionFile(f *session.File, opts ...Option) (*App, error) {
	if len(f.Headers) != len(f.Sequences) {
		return nil, formatErr("%d headers but %d sequences", len(f.Headers), len(f.Sequences))
	}
	entries := make([]seq.Entry, len(f.Headers))
	for i := range f.Headers {
		entries[i] = seq.Entry{Header: f.Headers[i], Sequence: f.Sequences[i]}
	}
	a := newApp(f.SourceFilename, seq.FromEntries(entries), opts...)
	a.notes = f.Notes
	n := len(a.records)
	for _, id := range f.RejectedIDs {
		if id >= 0 && id < n {
			a.rejected[seq.ID(id)] = true
		}
	}

	saved := make([]search.Saved, len(f.SavedSearches))
	for i, s := range f.SavedSearches {
		saved[i] = search.Saved{ID: i + 1, Name: s.Name, Query: s.Query, Kind: s.Kind, Enabled: s.Enabled, Color: s.Color}
	}
	a.registry.Restore(saved, f.NextColor)

	views := f.Views
	if len(views) == 0 {
		views = []session.View{legacyView(f)}
	}
	var hints *loadHints
	for _, sv := range views {
		v := a.decodeView(sv, n)
		a.addView(v)
		if sv.Name == f.CurrentView {
			hints = currentHints(sv)
		}
	}
	if _, ok := a.views[OriginalView]; !ok {
		ids := make([]seq.ID, n)
		for i := range ids {
			ids[i] = seq.ID(i)
		}
		a.viewNames = append([]string{OriginalView}, a.viewNames...)
		a.views[OriginalView] = &View{Name: OriginalView, SequenceIDs: ids}
	}
	if len(a.rejected) > 0 {
		a.rebuildDerivedViews()
	}

	current := f.CurrentView
	if _, ok := a.views[current]; !ok || len(a.views[current].SequenceIDs) == 0 {
		current = OriginalView
		hints = nil
	}
	if len(views) == 1 && len(f.Views) == 0 {
		hints = currentHints(views[0])
	}
	a.loadView(current, hints)
	return a, nil
}

// legacyView builds the original view of a single-view session.
func legacyView(f *session.File) session.View {
	ids := make([]int, len(f.Headers))
	for i := range ids {
		ids[i] = i
	}
	var active []int
	for i, s := range f.SavedSearches {
		if s.Enabled {
			active = append(active, i+1)
		}
	}
	return session.View{
		Name:            OriginalView,
		SequenceIDs:     ids,
		TreeNewick:      f.TreeNewick,
		TreeLines:       f.TreeLines,
		CurrentSearch:   f.CurrentSearch,
		LabelSearch:     f.LabelSearch,
		ActiveSearchIDs: active,
	}
}

func currentHints(sv session.View) *loadHints {
	h := &loadHints{}
	if cs := sv.CurrentSearch; cs != nil && cs.CurrentMatch != nil {
		h.seqCurrent = *cs.CurrentMatch
	}
	if ls := sv.LabelSearch; ls != nil {
		h.labelMatches = ls.Matches
		if ls.Current != nil {
			h.labelCurrent = *ls.Current
		}
	}
	return h
}

func (a *App) decodeView(sv session.View, n int) *View {
	v := &View{
		Name:            sv.Name,
		SequenceIDs:     seqIDs(sv.SequenceIDs, n),
		ActiveSearchIDs: sv.ActiveSearchIDs,
		UserOrdering:    sv.UserOrdering,
		OutputPath:      sv.OutputPath,
		Notes:           sv.Notes,
		SelectedIDs:     seqIDs(sv.SelectedIDs, n),
		Criterion:       order.ParseCriterion(sv.Ordering),
		Metric:          order.ParseMetric(sv.Metric),
	}
	if sv.CursorID != nil && *sv.CursorID >= 0 && *sv.CursorID < n {
		id := seq.ID(*sv.CursorID)
		v.CursorID = &id
	}
	if sv.TreeNewick != "" {
		root, err := tree.ParseNewick(sv.TreeNewick)
		if err != nil {
			a.logger.Warn("stored tree not restored", "view", sv.Name, "err", err)
		} else {
			v.Tree = root
			v.TreeNewick = sv.TreeNewick
		}
	}
	if cs := sv.CurrentSearch; cs != nil {
		v.CurrentSearch = &SearchRef{Kind: cs.Kind, Pattern: cs.Pattern}
		if cs.CurrentMatch != nil {
			v.CurrentSearch.Current = *cs.CurrentMatch
		}
	}
	if ls := sv.LabelSearch; ls != nil {
		ref := &LabelRef{Pattern: ls.Pattern, TreeRange: ls.TreeRange}
		if ls.Source != nil {
			ref.Source = *ls.Source
		}
		if ls.Current != nil {
			ref.Current = *ls.Current
		}
		for _, r := range ls.Matches {
			if r >= 0 && r < len(v.SequenceIDs) {
				ref.MatchIDs = append(ref.MatchIDs, v.SequenceIDs[r])
			}
		}
		v.LabelSearch = ref
	}
	return v
}
