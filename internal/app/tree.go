package app

import (
	"strings"

	"msafara/internal/search"
	"msafara/internal/tree"
)

func (a *App) Tree() *tree.Node {
	return a.tree
}

func (a *App) TreeNewick() string {
	return a.treeNewick
}

func (a *App) TreeLines() []string {
	return a.treeLines
}

func (a *App) TreePanelWidth() int {
	return a.treePanelWidth
}

func (a *App) HasTreePanel() bool {
	return len(a.treeLines) > 0
}

// SetTreeFromNewick parses text as the tree of the active view. Every leaf
// must name a distinct row of the view.
func (a *App) SetTreeFromNewick(text string) error {
	root, err := tree.ParseNewick(text)
	if err != nil {
		return &FormatError{Msg: "newick", Err: err}
	}
	return a.SetTreeForCurrentView(root, strings.TrimSpace(text))
}

func (a *App) SetTreeForCurrentView(root *tree.Node, newick string) error {
	if _, _, err := tree.Layout(root, nil); err != nil {
		return &FormatError{Msg: "tree layout", Err: err}
	}
	leaves := root.Leaves()
	if len(leaves) != len(a.rowIDs) {
		return formatErr("tree has %d leaves but the view has %d sequences", len(leaves), len(a.rowIDs))
	}
	idx, err := newHeaderIndex(a.alignment.Headers)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(leaves))
	for _, leaf := range leaves {
		r, err := idx.resolve(leaf)
		if err != nil {
			return err
		}
		if seen[r] {
			return formatErr("tree names sequence %q twice", a.alignment.Headers[r])
		}
		seen[r] = true
	}
	if newick == "" {
		newick = tree.Format(root)
	}
	a.tree = root
	a.treeNewick = newick
	a.renderTree()
	return nil
}

func (a *App) clearTree() {
	a.tree = nil
	a.treeNewick = ""
	a.treeLines = nil
	a.treePanelWidth = 0
}

// renderTree lays the tree out again, highlighting the leaf range of a
// tree-derived label search.
func (a *App) renderTree() {
	var sel *tree.LeafRange
	if ls := a.labelSearch; ls != nil && ls.Source == search.FromTree && ls.TreeRange != nil {
		sel = &tree.LeafRange{Lo: ls.TreeRange[0], Hi: ls.TreeRange[1]}
	}
	lines, _, err := tree.Layout(a.tree, sel)
	if err != nil {
		a.logger.Warn("tree layout failed", "view", a.current, "err", err)
		a.clearTree()
		return
	}
	a.treeLines = lines
	a.treePanelWidth = tree.Width(lines)
}
