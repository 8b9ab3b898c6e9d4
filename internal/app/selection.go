package app

import "msafara/internal/seq"

func (a *App) selectedIDs() []seq.ID {
	var ids []seq.ID
	for _, id := range a.rowIDs {
		if a.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectionRanks lists selected rows in rank order.
func (a *App) SelectionRanks() []Rank {
	var ranks []Rank
	for r, id := range a.rowIDs {
		if a.selected[id] {
			ranks = append(ranks, Rank(r))
		}
	}
	return ranks
}

func (a *App) IsLabelSelected(r Rank) bool {
	if r < 0 || int(r) >= len(a.rowIDs) {
		return false
	}
	return a.selected[a.rowIDs[r]]
}

// SelectLabelByRank selects row r and puts the cursor on it.
func (a *App) SelectLabelByRank(r Rank) error {
	if r < 0 || int(r) >= len(a.rowIDs) {
		return formatErr("rank %d is outside the view", r)
	}
	id := a.rowIDs[r]
	a.selected[id] = true
	a.cursor = &id
	return nil
}

func (a *App) CursorRank() (Rank, bool) {
	if a.cursor == nil {
		return 0, false
	}
	for r, id := range a.rowIDs {
		if id == *a.cursor {
			return Rank(r), true
		}
	}
	return 0, false
}

func (a *App) SetCursorRank(r Rank) {
	if r < 0 || int(r) >= len(a.rowIDs) {
		return
	}
	id := a.rowIDs[r]
	a.cursor = &id
}

func (a *App) ClearCursor() {
	a.cursor = nil
}

// MoveCursor moves the cursor by delta screen lines, clamped to the view.
// Without a cursor it starts on the first screen line.
func (a *App) MoveCursor(delta int) {
	n := len(a.rowIDs)
	if n == 0 {
		return
	}
	line := 0
	if r, ok := a.CursorRank(); ok {
		line = a.RankToScreenline(r) + delta
	}
	line = max(0, min(line, n-1))
	a.SetCursorRank(a.ScreenlineToRank(line))
}

func (a *App) ToggleSelectionOnCursor() {
	r, ok := a.CursorRank()
	if !ok {
		return
	}
	id := a.rowIDs[r]
	if a.selected[id] {
		delete(a.selected, id)
	} else {
		a.selected[id] = true
	}
}

func (a *App) ClearSelection() {
	a.selected = map[seq.ID]bool{}
}

func (a *App) InvertSelection() {
	next := make(map[seq.ID]bool, len(a.rowIDs))
	for _, id := range a.rowIDs {
		if !a.selected[id] {
			next[id] = true
		}
	}
	a.selected = next
}

func (a *App) SelectAllInView() {
	for _, id := range a.rowIDs {
		a.selected[id] = true
	}
}

// pruneSelection drops selected ids and the cursor when they are no longer
// rows of the view.
func (a *App) pruneSelection() {
	member := make(map[seq.ID]bool, len(a.rowIDs))
	for _, id := range a.rowIDs {
		member[id] = true
	}
	for id := range a.selected {
		if !member[id] {
			delete(a.selected, id)
		}
	}
	if a.cursor != nil && !member[*a.cursor] {
		a.cursor = nil
	}
}
