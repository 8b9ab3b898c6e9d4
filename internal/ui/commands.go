package ui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"msafara/internal/app"
	"msafara/internal/search"
	"msafara/internal/storage"
)

// runCommand executes a ':' command line.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "q", "quit":
		return m, tea.Quit
	case "w":
		m.saveSession(rest)
	case "e":
		m.loadSession(rest)
	case "sl":
		m.listSessions()
	case "wa":
		path := rest
		if path == "" {
			path = m.app.CurrentViewOutputPath()
		}
		if err := m.app.WriteAlignmentFasta(path); err != nil {
			m.status = fmt.Sprintf("write failed: %v", err)
		} else {
			m.status = "Wrote " + path
		}
	case "v":
		if err := m.app.SwitchView(rest); err != nil {
			m.status = fmt.Sprintf("switch failed: %v", err)
		} else {
			m.top = 0
			m.status = "view: " + rest
		}
	case "vl":
		m.status = "views: " + strings.Join(m.app.ViewNames(), ", ")
	case "vn":
		m.report(m.app.CreateViewFromSelection(rest), "created view "+rest)
	case "vc":
		m.report(m.app.CreateViewFromCurrent(rest), "created view "+rest)
	case "vd":
		m.report(m.app.DeleteView(rest), "deleted view "+rest)
	case "vr":
		oldName, newName, _ := strings.Cut(rest, " ")
		m.report(m.app.RenameView(oldName, strings.TrimSpace(newName)), "renamed view "+oldName)
	case "va":
		ids := m.app.IDsForRanks(m.targetRanks())
		n, err := m.app.AddIDsToView(rest, ids)
		m.report(err, fmt.Sprintf("added %d sequences to %s", n, rest))
	case "ss", "sst":
		kind := search.Regex
		if name == "sst" {
			kind = search.Emboss
		}
		label, query, found := strings.Cut(rest, " ")
		if !found {
			label, query = "", rest
		}
		m.report(m.app.AddSavedSearchWithKind(label, query, kind), "saved search "+query)
	case "st":
		m.withIndex(rest, func(i int) bool { return m.app.ToggleSavedSearch(i) }, "toggled search")
	case "sd":
		m.withIndex(rest, func(i int) bool { return m.app.DeleteSavedSearch(i) }, "deleted search")
	case "nolbl":
		m.app.ResetLabelSearch()
		m.status = "Label search cleared"
	case "noseq":
		m.app.ClearSeqSearch()
		m.status = "Sequence search cleared"
	case "tree":
		data, err := os.ReadFile(rest)
		if err != nil {
			m.status = fmt.Sprintf("read tree failed: %v", err)
			return m, nil
		}
		m.report(m.app.SetTreeFromNewick(string(data)), "tree loaded")
	case "treesel":
		lo, hi, err := parseRange(rest)
		if err != nil {
			m.status = fmt.Sprintf("treesel: %v", err)
			return m, nil
		}
		m.selectTreeRange(lo, hi)
	case "sm":
		n := m.app.SelectSequencesWithCurrentMatch()
		m.status = fmt.Sprintf("selected %d sequences", n)
	case "notes":
		m.app.SetNotes(rest)
		m.status = "Notes set"
	case "vnotes":
		m.app.SetViewNotes(rest)
		m.status = "View notes set"
	case "out":
		m.app.SetViewOutputPath(rest)
		m.status = "Output path: " + m.app.CurrentViewOutputPath()
	default:
		m.status = fmt.Sprintf("unknown command %q", name)
	}
	m.scrollToCursor()
	return m, nil
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ok
}

func (m *Model) withIndex(arg string, fn func(int) bool, ok string) {
	n, err := strconv.Atoi(arg)
	if err != nil || !fn(n-1) {
		m.status = fmt.Sprintf("no saved search %q", arg)
		return
	}
	m.status = ok
}

func parseRange(s string) (int, int, error) {
	a, b, found := strings.Cut(s, "-")
	if !found {
		b = a
	}
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// selectTreeRange selects the rows of tree leaves lo..hi, 1-based.
func (m *Model) selectTreeRange(lo, hi int) {
	ranks, err := m.app.TreeLeafRanks()
	if err != nil {
		m.status = fmt.Sprintf("treesel: %v", err)
		return
	}
	lo, hi = clampCursor(lo-1, len(ranks)), clampCursor(hi-1, len(ranks))
	m.app.SetLabelMatchesFromTree(ranks[lo:hi+1], lo, hi)
	m.status = fmt.Sprintf("selected %d leaves", hi-lo+1)
}

func (m *Model) saveSession(path string) {
	if path != "" {
		m.sessionPath = path
	}
	if err := m.app.SaveSession(m.sessionPath); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = "Saved " + m.sessionPath
	m.recordSession(storage.ActionSave)
}

func (m *Model) loadSession(path string) {
	if path == "" {
		path = m.sessionPath
	}
	loaded, err := app.LoadSession(path, m.appOptions()...)
	if err != nil {
		m.status = fmt.Sprintf("load failed: %v", err)
		return
	}
	m.app = loaded
	m.sessionPath = path
	m.top, m.col = 0, 0
	m.status = "Loaded " + path
	m.recordSession(storage.ActionLoad)
}

func (m *Model) appOptions() []app.Option {
	return []app.Option{
		app.WithTools(m.app.Tools()),
		app.WithColors(m.app.Colors()),
		app.WithLogger(m.app.Logger()),
	}
}

func (m *Model) recordSession(action string) {
	if m.store == nil {
		return
	}
	err := m.store.RecordSession(storage.SessionEntry{
		Path:        m.sessionPath,
		Source:      m.app.Filename(),
		Action:      action,
		Records:     len(m.app.Records()),
		Views:       len(m.app.ViewNames()),
		CurrentView: m.app.CurrentViewName(),
	})
	if err != nil {
		m.status += fmt.Sprintf(" (catalog: %v)", err)
	}
}

func (m *Model) listSessions() {
	if m.store == nil {
		m.status = "No session catalog"
		return
	}
	entries, err := m.store.RecentSessions(5)
	if err != nil {
		m.status = fmt.Sprintf("list failed: %v", err)
		return
	}
	if len(entries) == 0 {
		m.status = "No recorded sessions"
		return
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%s %s, %d seqs)", e.Path, e.Action, e.At.Local().Format("2006-01-02 15:04"), e.Records)
	}
	m.status = strings.Join(parts, " • ")
}
