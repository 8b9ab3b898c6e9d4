package app

import (
	"slices"

	"msafara/internal/seq"
)

// RemoveSequences drops the rows at ranks from the active view. Records stay
// in the store; only view membership changes. Searches are replayed against
// the remaining rows and keep their current match where it survives.
// Protected views keep their membership and report 0.
func (a *App) RemoveSequences(ranks []Rank) int {
	if isProtected(a.current) {
		a.logger.Debug("removal refused", "view", a.current)
		return 0
	}
	return a.removeRows(ranks)
}

func (a *App) removeRows(ranks []Rank) int {
	ranks = a.validRanks(ranks)
	if len(ranks) == 0 {
		return 0
	}
	labelHeader := a.currentLabelHeader()
	treeHeaders := a.treeLabelHeaders()
	anchor := a.currentSeqAnchor()

	rows := make([]int, len(ranks))
	for i, r := range ranks {
		rows[i] = int(r)
	}
	// Descending so earlier positions stay valid while removing.
	for i := len(ranks) - 1; i >= 0; i-- {
		r := ranks[i]
		a.rowIDs = slices.Delete(a.rowIDs, int(r), int(r)+1)
	}
	a.alignment.RemoveRows(rows)
	a.views[a.current].SequenceIDs = slices.Clone(a.rowIDs)

	if a.tree != nil {
		a.clearTree()
		if a.labelSearch != nil {
			a.labelSearch.TreeRange = nil
		}
	}
	a.pruneUserOrdering()
	a.recomputeLabelSearch(labelHeader, treeHeaders)
	a.recomputeSeqSearch(anchor)
	a.recomputeSavedSearches()
	a.recomputeOrdering()
	a.pruneSelection()
	return len(ranks)
}

// validRanks returns the distinct in-range ranks, sorted ascending.
func (a *App) validRanks(ranks []Rank) []Rank {
	out := make([]Rank, 0, len(ranks))
	for _, r := range ranks {
		if r >= 0 && int(r) < len(a.rowIDs) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (a *App) pruneUserOrdering() {
	if a.userOrdering == nil {
		return
	}
	present := make(map[string]bool, len(a.alignment.Headers))
	for _, h := range a.alignment.Headers {
		present[h] = true
	}
	a.userOrdering = slices.DeleteFunc(slices.Clone(a.userOrdering), func(h string) bool { return !present[h] })
}

// UpdateRecordsFromAlignment replaces the sequences of the rows at ranks.
// Ids and headers are kept.
func (a *App) UpdateRecordsFromAlignment(ranks []Rank, sequences []string) error {
	if len(ranks) != len(sequences) {
		return formatErr("%d ranks but %d sequences", len(ranks), len(sequences))
	}
	for _, r := range ranks {
		if r < 0 || int(r) >= len(a.rowIDs) {
			return formatErr("rank %d is outside the view", r)
		}
	}
	for i, r := range ranks {
		id := a.rowIDs[r]
		a.records[id] = seq.Record{ID: id, Header: a.records[id].Header, Sequence: sequences[i]}
	}
	labelHeader := a.currentLabelHeader()
	treeHeaders := a.treeLabelHeaders()
	anchor := a.currentSeqAnchor()
	a.materialize()
	a.recomputeLabelSearch(labelHeader, treeHeaders)
	a.recomputeSeqSearch(anchor)
	a.recomputeSavedSearches()
	a.recomputeOrdering()
	return nil
}
