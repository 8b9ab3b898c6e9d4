package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"msafara/internal/app"
	"msafara/internal/config"
	"msafara/internal/search"
)

const labelWidth = 20

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	matchStyle    = lipgloss.NewStyle().Bold(true)
)

func colorStyle(c search.Color) lipgloss.Style {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Foreground(lipgloss.Color("#000000"))
}

func (m Model) visibleRows() int {
	// title, blank, separator, status, help and the prompt line
	return max(1, m.height-6)
}

func (m Model) treeWidth() int {
	if !m.app.HasTreePanel() {
		return 0
	}
	return min(m.app.TreePanelWidth()+1, m.width/3)
}

func (m Model) seqWidth() int {
	return max(10, m.width-labelWidth-2-m.treeWidth())
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s [%s]", m.app.Filename(), m.app.CurrentViewName())))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d seqs • %d cols • %s • %s",
		m.app.NumSeq(), m.app.AlnLen(), m.app.OrderingStatusLabel(), m.searchSummary())))
	b.WriteString("\n\n")

	if m.app.NumSeq() == 0 {
		b.WriteString("This view is empty.")
	} else {
		b.WriteString(m.renderRows())
	}

	b.WriteString("\n---\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	if m.mode == modePrompt {
		b.WriteString(m.prompt.prefix())
		b.WriteString(m.input.View())
	} else {
		b.WriteString(renderHelp(m.cfg.Keys))
	}
	return b.String()
}

func (m Model) searchSummary() string {
	var parts []string
	if p, ok := m.app.CurrentSeqSearchPattern(); ok {
		total, with := m.app.SeqSearchCounts()
		parts = append(parts, fmt.Sprintf("/%s %d/%d", p, total, with))
	}
	if ls := m.app.LabelSearch(); ls != nil {
		parts = append(parts, fmt.Sprintf("\"%s %d", ls.Pattern, len(ls.Matches)))
	}
	if n := len(m.app.ActiveSearchIDs()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d saved", n))
	}
	if len(parts) == 0 {
		return "no search"
	}
	return strings.Join(parts, " ")
}

func renderHelp(k config.Keymap) string {
	return mutedStyle.Render(fmt.Sprintf("%s/%s move • %s select • %s label • %s seq • %s motif • %s/%s match • %s order • %s metric • %s reject • %s view • %s cmd • %s quit",
		k.Up, k.Down, k.Select, k.LabelSearch, k.SeqSearch, k.ToolSearch, k.NextMatch, k.PrevMatch, k.NextOrder, k.NextMetric, k.Reject, k.NextView, k.Command, k.Quit))
}

func (m Model) renderRows() string {
	var b strings.Builder
	n := m.app.NumSeq()
	treeLines := m.app.TreeLines()
	tw := m.treeWidth()
	cursor, hasCursor := m.app.CursorRank()
	aln := m.app.Alignment()
	end := min(n, m.top+m.visibleRows())
	for line := m.top; line < end; line++ {
		r := m.app.ScreenlineToRank(line)
		if tw > 0 {
			tl := ""
			if line < len(treeLines) {
				tl = treeLines[line]
			}
			b.WriteString(lipgloss.NewStyle().Width(tw).MaxWidth(tw).Render(tl))
		}
		label := fit(aln.Headers[r], labelWidth)
		switch {
		case hasCursor && r == cursor:
			label = cursorStyle.Render(label)
		case m.app.IsLabelSelected(r):
			label = selectedStyle.Render(label)
		}
		b.WriteString(label)
		b.WriteString("  ")
		b.WriteString(m.renderSequence(r))
		b.WriteString("\n")
	}
	return b.String()
}

func fit(s string, w int) string {
	rs := []rune(s)
	if len(rs) > w {
		return string(rs[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(rs))
}

// renderSequence draws the visible columns of row r. The current search
// wins over saved searches; among saved searches the later one wins.
func (m Model) renderSequence(r app.Rank) string {
	s := m.app.Alignment().Sequences[r]
	from := min(m.col, len(s))
	to := min(len(s), m.col+m.seqWidth())
	if from >= to {
		return ""
	}
	styles := make([]*lipgloss.Style, to-from)
	for _, saved := range m.app.SavedSearches() {
		if !saved.Enabled || int(r) >= len(saved.Spans) {
			continue
		}
		st := colorStyle(saved.Color)
		paint(styles, saved.Spans[r], from, &st)
	}
	cur := colorStyle(m.app.Colors().CurrentSearch)
	cur = cur.Inherit(matchStyle)
	paint(styles, m.app.SeqSearchSpans(r), from, &cur)

	var b strings.Builder
	start := 0
	for i := 1; i <= len(styles); i++ {
		if i < len(styles) && styles[i] == styles[start] {
			continue
		}
		chunk := s[from+start : from+i]
		if styles[start] != nil {
			chunk = styles[start].Render(chunk)
		}
		b.WriteString(chunk)
		start = i
	}
	return b.String()
}

func paint(styles []*lipgloss.Style, spans []search.Span, from int, st *lipgloss.Style) {
	for _, sp := range spans {
		for c := max(sp.Start, from); c < sp.End && c-from < len(styles); c++ {
			styles[c-from] = st
		}
	}
}
