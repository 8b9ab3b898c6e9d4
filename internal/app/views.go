package app

import (
	"slices"
	"strings"

	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/seq"
	"msafara/internal/tree"
)

// View is the stored state of a named subset of records. The active view's
// live state is held by App and written back on switch and save.
type View struct {
	Name        string
	SequenceIDs []seq.ID

	Tree           *tree.Node
	TreeNewick     string
	TreeLines      []string
	TreePanelWidth int

	CurrentSearch   *SearchRef
	LabelSearch     *LabelRef
	ActiveSearchIDs []int
	UserOrdering    []string
	Criterion       order.Criterion
	Metric          order.Metric

	OutputPath  string
	Notes       string
	SelectedIDs []seq.ID
	CursorID    *seq.ID
}

// SearchRef is a content search kept by pattern so it can be replayed.
type SearchRef struct {
	Kind    search.Kind
	Pattern string
	Current int
}

// LabelRef is a label search. Tree-derived matches cannot be replayed from a
// pattern, so their ids are kept.
type LabelRef struct {
	Pattern   string
	Source    search.LabelSource
	MatchIDs  []seq.ID
	Current   int
	TreeRange *[2]int
}

func isProtected(name string) bool {
	return name == OriginalView || name == FilteredView || name == RejectedView
}

func (a *App) View(name string) (*View, bool) {
	v, ok := a.views[name]
	return v, ok
}

// ViewNames lists views in creation order.
func (a *App) ViewNames() []string {
	return slices.Clone(a.viewNames)
}

func (a *App) CurrentViewName() string {
	return a.current
}

func (a *App) addView(v *View) {
	if _, ok := a.views[v.Name]; !ok {
		a.viewNames = append(a.viewNames, v.Name)
	}
	a.views[v.Name] = v
}

func validateViewName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", formatErr("view name is empty")
	}
	if isProtected(name) {
		return "", formatErr("view name %q is reserved", name)
	}
	return name, nil
}

func (a *App) SwitchView(name string) error {
	v, ok := a.views[name]
	if !ok {
		return formatErr("no view named %q", name)
	}
	if name == a.current {
		return nil
	}
	if len(v.SequenceIDs) == 0 {
		return formatErr("view %q is empty", name)
	}
	a.captureView()
	a.loadView(name, nil)
	a.logger.Debug("switched view", "view", name, "rows", len(a.rowIDs))
	return nil
}

func (a *App) CreateViewFromCurrent(name string) error {
	name, err := validateViewName(name)
	if err != nil {
		return err
	}
	if _, ok := a.views[name]; ok {
		return formatErr("view %q already exists", name)
	}
	a.addView(&View{Name: name, SequenceIDs: slices.Clone(a.rowIDs)})
	return nil
}

// CreateViewFromSelection makes a view of the selected records in display
// order and records that order as the view's user ordering.
func (a *App) CreateViewFromSelection(name string) error {
	name, err := validateViewName(name)
	if err != nil {
		return err
	}
	if _, ok := a.views[name]; ok {
		return formatErr("view %q already exists", name)
	}
	var ids []seq.ID
	var headers []string
	for _, r := range a.ordering {
		id := a.rowIDs[r]
		if a.selected[id] {
			ids = append(ids, id)
			headers = append(headers, a.headerOf(id))
		}
	}
	if len(ids) == 0 {
		return formatErr("no sequences selected")
	}
	a.addView(&View{Name: name, SequenceIDs: ids, UserOrdering: headers})
	return nil
}

func (a *App) DeleteView(name string) error {
	if isProtected(name) {
		return formatErr("view %q cannot be deleted", name)
	}
	if _, ok := a.views[name]; !ok {
		return formatErr("no view named %q", name)
	}
	if name == a.current {
		a.captureView()
		a.loadView(OriginalView, nil)
	}
	delete(a.views, name)
	a.viewNames = slices.DeleteFunc(a.viewNames, func(n string) bool { return n == name })
	return nil
}

func (a *App) RenameView(oldName, newName string) error {
	if isProtected(oldName) {
		return formatErr("view %q cannot be renamed", oldName)
	}
	v, ok := a.views[oldName]
	if !ok {
		return formatErr("no view named %q", oldName)
	}
	newName, err := validateViewName(newName)
	if err != nil {
		return err
	}
	if _, ok := a.views[newName]; ok {
		return formatErr("view %q already exists", newName)
	}
	delete(a.views, oldName)
	v.Name = newName
	a.views[newName] = v
	i := slices.Index(a.viewNames, oldName)
	a.viewNames[i] = newName
	if a.current == oldName {
		a.current = newName
	}
	return nil
}

// AddIDsToView appends ids that the custom view does not hold yet and
// reports how many were added.
func (a *App) AddIDsToView(name string, ids []seq.ID) (int, error) {
	if isProtected(name) {
		return 0, formatErr("cannot add sequences to view %q", name)
	}
	v, ok := a.views[name]
	if !ok {
		return 0, formatErr("no view named %q", name)
	}
	if name == a.current {
		return 0, formatErr("cannot add sequences to the active view")
	}
	have := make(map[seq.ID]bool, len(v.SequenceIDs))
	for _, id := range v.SequenceIDs {
		have[id] = true
	}
	added := 0
	for _, id := range ids {
		if id < 0 || int(id) >= len(a.records) || have[id] {
			continue
		}
		have[id] = true
		v.SequenceIDs = append(v.SequenceIDs, id)
		added++
	}
	if added > 0 && v.UserOrdering != nil {
		// The stored ordering no longer covers the view.
		v.UserOrdering = nil
		if v.Criterion == order.User {
			v.Criterion = order.SourceFile
		}
	}
	return added, nil
}

func (a *App) IDsForRanks(ranks []Rank) []seq.ID {
	ids := make([]seq.ID, 0, len(ranks))
	for _, r := range ranks {
		if r >= 0 && int(r) < len(a.rowIDs) {
			ids = append(ids, a.rowIDs[r])
		}
	}
	return ids
}

// RanksForIDs skips ids that are not in the active view.
func (a *App) RanksForIDs(ids []seq.ID) []Rank {
	pos := a.rankIndex()
	ranks := make([]Rank, 0, len(ids))
	for _, id := range ids {
		if r, ok := pos[id]; ok {
			ranks = append(ranks, r)
		}
	}
	return ranks
}

func (a *App) rankIndex() map[seq.ID]Rank {
	pos := make(map[seq.ID]Rank, len(a.rowIDs))
	for i, id := range a.rowIDs {
		pos[id] = Rank(i)
	}
	return pos
}

// captureView writes the live state of the active view back to its View.
func (a *App) captureView() {
	v := a.views[a.current]
	v.SequenceIDs = slices.Clone(a.rowIDs)
	v.Tree = a.tree
	v.TreeNewick = a.treeNewick
	v.TreeLines = a.treeLines
	v.TreePanelWidth = a.treePanelWidth
	v.CurrentSearch = nil
	if a.seqSearch != nil {
		v.CurrentSearch = &SearchRef{Kind: a.seqSearch.Kind, Pattern: a.seqSearch.Pattern, Current: a.seqSearch.Current}
	}
	v.LabelSearch = nil
	if ls := a.labelSearch; ls != nil {
		ref := &LabelRef{Pattern: ls.Pattern, Source: ls.Source, Current: ls.Current, TreeRange: ls.TreeRange}
		for _, r := range ls.Matches {
			ref.MatchIDs = append(ref.MatchIDs, a.rowIDs[r])
		}
		v.LabelSearch = ref
	}
	v.ActiveSearchIDs = a.registry.ActiveIDs()
	v.UserOrdering = a.userOrdering
	v.Criterion = a.criterion
	v.Metric = a.metric
	v.OutputPath = a.outputPath
	v.Notes = a.viewNotes
	v.SelectedIDs = a.selectedIDs()
	v.CursorID = nil
	if a.cursor != nil {
		id := *a.cursor
		v.CursorID = &id
	}
}

// loadHints carries state stored with a session for the view being opened,
// used instead of recomputed values where it is still valid.
type loadHints struct {
	labelMatches []int
	labelCurrent int
	seqCurrent   int
}

// loadView makes name the active view. Searches are replayed from their
// patterns against the view's current records.
func (a *App) loadView(name string, hints *loadHints) {
	v := a.views[name]
	a.current = name
	a.rowIDs = slices.Clone(v.SequenceIDs)
	a.materialize()
	a.ordering = order.Identity(len(a.rowIDs))
	a.reverseOrdering = order.Identity(len(a.rowIDs))

	a.tree = v.Tree
	a.treeNewick = v.TreeNewick
	a.treeLines = v.TreeLines
	a.treePanelWidth = v.TreePanelWidth
	a.userOrdering = v.UserOrdering
	a.criterion = v.Criterion
	if a.criterion == order.User && a.userOrdering == nil {
		a.criterion = order.SourceFile
	}
	a.metric = v.Metric
	a.outputPath = v.OutputPath
	a.viewNotes = v.Notes

	a.labelSearch = nil
	if ref := v.LabelSearch; ref != nil {
		a.labelSearch = a.replayLabelSearch(ref, hints)
	}
	a.seqSearch = nil
	if ref := v.CurrentSearch; ref != nil {
		st, err := a.runSeqSearch(ref.Pattern, ref.Kind)
		if err != nil {
			a.logger.Warn("stored search not restored", "view", name, "pattern", ref.Pattern, "err", err)
		} else {
			st.Current = ref.Current
			if hints != nil {
				st.Current = hints.seqCurrent
			}
			if st.Current < 0 || st.Current >= len(st.Matches) {
				st.Current = 0
			}
			a.seqSearch = st
		}
	}
	a.registry.SetActive(v.ActiveSearchIDs)
	a.recomputeSavedSearches()
	a.recomputeOrdering()

	a.selected = map[seq.ID]bool{}
	for _, id := range v.SelectedIDs {
		a.selected[id] = true
	}
	a.cursor = nil
	if v.CursorID != nil {
		id := *v.CursorID
		a.cursor = &id
	}
	a.pruneSelection()
	if a.tree != nil {
		a.renderTree()
	}
}

func (a *App) replayLabelSearch(ref *LabelRef, hints *loadHints) *search.LabelState {
	var st *search.LabelState
	switch {
	case hints != nil && hints.labelMatches != nil:
		st = &search.LabelState{Pattern: ref.Pattern, Source: ref.Source, TreeRange: ref.TreeRange}
		for _, r := range hints.labelMatches {
			if r >= 0 && r < len(a.rowIDs) {
				st.Matches = append(st.Matches, r)
			}
		}
		st.Current = hints.labelCurrent
	case ref.Source == search.FromTree:
		st = &search.LabelState{Pattern: ref.Pattern, Source: ref.Source, TreeRange: ref.TreeRange, Current: ref.Current}
		for _, r := range a.RanksForIDs(ref.MatchIDs) {
			st.Matches = append(st.Matches, int(r))
		}
	default:
		var err error
		st, err = search.SearchLabels(a.alignment.Headers, ref.Pattern)
		if err != nil {
			return nil
		}
		st.Current = ref.Current
	}
	if st.Current < 0 || st.Current >= len(st.Matches) {
		st.Current = 0
	}
	return st
}

// rebuildDerivedViews recomputes the filtered and rejected views from the
// rejected set, creating them on first need.
func (a *App) rebuildDerivedViews() {
	var kept, rejected []seq.ID
	for _, r := range a.records {
		if a.rejected[r.ID] {
			rejected = append(rejected, r.ID)
		} else {
			kept = append(kept, r.ID)
		}
	}
	for name, ids := range map[string][]seq.ID{FilteredView: kept, RejectedView: rejected} {
		v, ok := a.views[name]
		if !ok {
			v = &View{Name: name}
		}
		v.SequenceIDs = ids
		pruneViewState(v)
		a.addView(v)
	}
	// addView appends in map iteration order; keep filtered before rejected.
	a.viewNames = slices.DeleteFunc(a.viewNames, func(n string) bool { return n == FilteredView || n == RejectedView })
	at := slices.Index(a.viewNames, OriginalView) + 1
	a.viewNames = slices.Insert(a.viewNames, at, FilteredView, RejectedView)
}

// pruneViewState drops stored selection and ordering entries that no longer
// refer to members of v.
func pruneViewState(v *View) {
	member := make(map[seq.ID]bool, len(v.SequenceIDs))
	for _, id := range v.SequenceIDs {
		member[id] = true
	}
	v.SelectedIDs = slices.DeleteFunc(v.SelectedIDs, func(id seq.ID) bool { return !member[id] })
	if v.CursorID != nil && !member[*v.CursorID] {
		v.CursorID = nil
	}
	if v.LabelSearch != nil {
		v.LabelSearch.MatchIDs = slices.DeleteFunc(v.LabelSearch.MatchIDs, func(id seq.ID) bool { return !member[id] })
	}
}

func (a *App) RejectedIDs() []seq.ID {
	ids := make([]seq.ID, 0, len(a.rejected))
	for _, r := range a.records {
		if a.rejected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
