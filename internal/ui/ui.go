package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"msafara/internal/app"
	"msafara/internal/config"
	"msafara/internal/storage"
)

type mode int

const (
	modeBrowse mode = iota
	modePrompt
	modeConfirmReject
)

type promptKind int

const (
	promptLabel promptKind = iota
	promptSeq
	promptTool
	promptCommand
)

func (p promptKind) prefix() string {
	switch p {
	case promptSeq:
		return "/"
	case promptTool:
		return "\\"
	case promptCommand:
		return ":"
	default:
		return "\""
	}
}

type Model struct {
	app         *app.App
	store       *storage.Store
	cfg         config.Config
	sessionPath string

	mode    mode
	prompt  promptKind
	input   textinput.Model
	status  string
	pending []app.Rank

	top    int
	col    int
	width  int
	height int

	writeClipboard func(string) error
}

func New(a *app.App, store *storage.Store, cfg config.Config, sessionPath string) Model {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 40
	ti.Prompt = ""

	if sessionPath == "" {
		sessionPath = a.DefaultSessionPath()
	}
	return Model{
		app:            a,
		store:          store,
		cfg:            cfg,
		sessionPath:    sessionPath,
		input:          ti,
		mode:           modeBrowse,
		status:         fmt.Sprintf("%s: %d sequences, %d columns", a.Filename(), a.NumSeq(), a.AlnLen()),
		width:          80,
		height:         24,
		writeClipboard: clipboard.WriteAll,
	}
}

func Run(a *app.App, store *storage.Store, cfg config.Config, sessionPath string) error {
	program := tea.NewProgram(New(a, store, cfg, sessionPath), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modePrompt:
			return m.updatePromptMode(msg.String(), msg)
		case modeConfirmReject:
			return m.updateRejectConfirm(msg.String())
		}
		return m.updateBrowseMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 10
		m.scrollToCursor()
	}
	return m, nil
}

func (m Model) startPrompt(kind promptKind, status string) (tea.Model, tea.Cmd) {
	m.mode = modePrompt
	m.prompt = kind
	m.input.SetValue("")
	m.input.Focus()
	m.status = status
	return m, textinput.Blink
}

func (m Model) updatePromptMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		text := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.input.SetValue("")
		m.mode = modeBrowse
		return m.submitPrompt(text)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) submitPrompt(text string) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptLabel:
		if err := m.app.RegexSearchLabels(text); err != nil {
			m.status = fmt.Sprintf("label search failed: %v", err)
			return m, nil
		}
		ls := m.app.LabelSearch()
		m.status = fmt.Sprintf("%d labels match %q", len(ls.Matches), text)
		m.jumpToLabelMatch()
	case promptSeq, promptTool:
		var err error
		if m.prompt == promptTool {
			err = m.app.EmbossSearchSequences(text)
		} else {
			err = m.app.RegexSearchSequences(text)
		}
		if err != nil {
			m.status = fmt.Sprintf("search failed: %v", err)
			return m, nil
		}
		total, with := m.app.SeqSearchCounts()
		m.status = fmt.Sprintf("%d matches in %d sequences", total, with)
		m.jumpToSeqMatch()
	case promptCommand:
		return m.runCommand(text)
	}
	return m, nil
}

func (m Model) updateBrowseMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.app.MoveCursor(1)
	case k.Up, "up":
		m.app.MoveCursor(-1)
	case k.Top, "home":
		m.app.MoveCursor(-m.app.NumSeq())
	case k.Bottom, "end":
		m.app.MoveCursor(m.app.NumSeq())
	case k.Right, "right":
		m.col = clampCursor(m.col+m.seqWidth()/2, m.app.AlnLen())
	case k.Left, "left":
		m.col = clampCursor(m.col-m.seqWidth()/2, m.app.AlnLen())
	case k.Select:
		m.app.ToggleSelectionOnCursor()
	case k.Invert:
		m.app.InvertSelection()
	case k.SelectAll:
		m.app.SelectAllInView()
	case k.Cancel:
		m.app.ClearSelection()
		m.status = "Selection cleared"
	case k.LabelSearch:
		return m.startPrompt(promptLabel, "Label search (regex)")
	case k.SeqSearch:
		return m.startPrompt(promptSeq, "Sequence search (regex)")
	case k.ToolSearch:
		return m.startPrompt(promptTool, "Motif search: [mismatches] MOTIF")
	case k.Command:
		return m.startPrompt(promptCommand, "Command")
	case k.NextMatch:
		m.stepMatch(1)
	case k.PrevMatch:
		m.stepMatch(-1)
	case k.NextOrder:
		m.app.NextOrderingCriterion()
		m.status = m.app.OrderingStatusLabel()
	case k.PrevOrder:
		m.app.PrevOrderingCriterion()
		m.status = m.app.OrderingStatusLabel()
	case k.NextMetric:
		m.app.NextMetric()
		m.status = "metric: " + m.app.Metric().String()
	case k.TreeOrder:
		if err := m.app.SetTreeOrderingFromTree(); err != nil {
			m.status = fmt.Sprintf("tree ordering failed: %v", err)
		} else {
			m.status = m.app.OrderingStatusLabel()
		}
	case k.Remove:
		ranks := m.targetRanks()
		n := m.app.RemoveSequences(ranks)
		if n == 0 && len(ranks) > 0 {
			m.status = fmt.Sprintf("Cannot remove from %s; create a view first (:vc name)", m.app.CurrentViewName())
			break
		}
		m.status = fmt.Sprintf("Removed %d sequences from %s", n, m.app.CurrentViewName())
	case k.Reject:
		ranks := m.targetRanks()
		if len(ranks) == 0 {
			m.status = "Nothing to reject"
			return m, nil
		}
		m.pending = ranks
		m.mode = modeConfirmReject
		m.status = fmt.Sprintf("Reject %d sequences to %s? y/n", len(ranks), m.app.RejectedOutputPath())
	case k.Yank:
		m.yankCursor()
	case k.Realign:
		m.status = "Running mafft..."
		if err := m.app.RealignWithMafft(context.Background()); err != nil {
			m.status = fmt.Sprintf("mafft failed: %v", err)
		} else {
			m.status = "Realigned with mafft"
		}
	case k.NextView:
		m.cycleView()
	}
	m.scrollToCursor()
	return m, nil
}

func (m Model) updateRejectConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		path := m.app.RejectedOutputPath()
		res, err := m.app.RejectSequences(m.pending, path)
		m.pending = nil
		m.mode = modeBrowse
		if err != nil {
			m.status = fmt.Sprintf("reject failed: %v", err)
			return m, nil
		}
		switch res.Kind {
		case app.WrittenToFile:
			m.status = fmt.Sprintf("Rejected %d sequences to %s", res.Count, path)
			if m.store != nil {
				if err := m.store.RecordRejections(m.app.Filename(), path, res.Headers); err != nil {
					m.status += fmt.Sprintf(" (catalog: %v)", err)
				}
			}
		case app.RemovedFromView:
			m.status = fmt.Sprintf("Removed %d sequences from %s", res.Count, m.app.CurrentViewName())
		case app.AlreadyRejected:
			m.status = "Already rejected"
		}
		m.scrollToCursor()
		return m, nil
	case "n", "N", "esc":
		m.pending = nil
		m.mode = modeBrowse
		m.status = "Reject cancelled"
	}
	return m, nil
}

// targetRanks is the selection, or the cursor row when nothing is selected.
func (m Model) targetRanks() []app.Rank {
	if ranks := m.app.SelectionRanks(); len(ranks) > 0 {
		return ranks
	}
	if r, ok := m.app.CursorRank(); ok {
		return []app.Rank{r}
	}
	return nil
}

func (m *Model) stepMatch(n int) {
	if m.app.SeqSearch() != nil {
		m.app.IncrementCurrentSeqMatch(n)
		m.jumpToSeqMatch()
		return
	}
	if m.app.LabelSearch() != nil {
		m.app.IncrementCurrentLabelMatch(n)
		m.jumpToLabelMatch()
		return
	}
	m.status = "No active search"
}

func (m *Model) jumpToLabelMatch() {
	line, ok := m.app.CurrentLabelMatchScreenline()
	if !ok {
		return
	}
	m.app.SetCursorRank(m.app.ScreenlineToRank(line))
	m.scrollToCursor()
}

func (m *Model) jumpToSeqMatch() {
	match, ok := m.app.CurrentSeqMatch()
	if !ok {
		return
	}
	m.app.SetCursorRank(app.Rank(match.SeqIndex))
	if match.Start < m.col || match.End > m.col+m.seqWidth() {
		m.col = clampCursor(match.Start-2, m.app.AlnLen())
	}
	m.scrollToCursor()
}

func (m *Model) cycleView() {
	names := m.app.ViewNames()
	cur := 0
	for i, n := range names {
		if n == m.app.CurrentViewName() {
			cur = i
		}
	}
	for step := 1; step < len(names); step++ {
		next := names[wrapIndex(cur+step, len(names))]
		if err := m.app.SwitchView(next); err == nil {
			m.status = "view: " + next
			m.top = 0
			return
		}
	}
	m.status = "No other view"
}

func (m *Model) yankCursor() {
	r, ok := m.app.CursorRank()
	if !ok {
		m.status = "No sequence under cursor"
		return
	}
	aln := m.app.Alignment()
	text := fmt.Sprintf(">%s\n%s\n", aln.Headers[r], aln.Sequences[r])
	if err := m.writeClipboard(text); err != nil {
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = "Copied " + aln.Headers[r]
}

// scrollToCursor keeps the cursor line inside the visible rows.
func (m *Model) scrollToCursor() {
	rows := m.visibleRows()
	m.top = clampCursor(m.top, m.app.NumSeq())
	r, ok := m.app.CursorRank()
	if !ok || rows <= 0 {
		return
	}
	line := m.app.RankToScreenline(r)
	if line < m.top {
		m.top = line
	}
	if line >= m.top+rows {
		m.top = line - rows + 1
	}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
