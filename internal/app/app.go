// Package app is the alignment view-and-search state engine. One App owns
// the record store, the named views and the state of the active view.
package app

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"msafara/internal/alignment"
	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/seq"
	"msafara/internal/tree"
)

// Rank is the position of a row within the active view.
type Rank int

const (
	OriginalView = "original"
	FilteredView = "filtered"
	RejectedView = "rejected"
)

type Tools struct {
	EmbossBinDir string
	MafftBinDir  string
}

type Colors struct {
	Palette       []search.Color
	CurrentSearch search.Color
}

type Option func(*App)

func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithTools(t Tools) Option {
	return func(a *App) { a.tools = t }
}

func WithColors(c Colors) Option {
	return func(a *App) {
		a.colors = c
		a.registry.SetPalette(c.Palette)
	}
}

type App struct {
	filename string
	records  []seq.Record
	rejected map[seq.ID]bool

	views     map[string]*View
	viewNames []string
	current   string

	// Materialized rows of the active view; rowIDs[rank] is the id of row rank.
	alignment *alignment.Alignment
	rowIDs    []seq.ID

	criterion       order.Criterion
	metric          order.Metric
	ordering        []int
	reverseOrdering []int
	userOrdering    []string

	labelSearch *search.LabelState
	seqSearch   *search.SeqState
	registry    *search.Registry

	tree           *tree.Node
	treeNewick     string
	treeLines      []string
	treePanelWidth int

	selected   map[seq.ID]bool
	cursor     *seq.ID
	outputPath string
	viewNotes  string
	notes      string

	tools  Tools
	colors Colors
	logger *log.Logger
}

// New loads entries as the record store and opens the original view.
// userOrdering, when non-nil, makes the User criterion reachable.
func New(filename string, entries []seq.Entry, userOrdering []string, opts ...Option) *App {
	a := newApp(filename, seq.FromEntries(entries), opts...)
	ids := make([]seq.ID, len(a.records))
	for i, r := range a.records {
		ids[i] = r.ID
	}
	a.addView(&View{Name: OriginalView, SequenceIDs: ids, UserOrdering: userOrdering})
	a.loadView(OriginalView, nil)
	return a
}

func newApp(filename string, records []seq.Record, opts ...Option) *App {
	a := &App{
		filename: filename,
		records:  records,
		rejected: map[seq.ID]bool{},
		views:    map[string]*View{},
		selected: map[seq.ID]bool{},
		registry: search.NewRegistry(nil),
		colors:   Colors{Palette: search.DefaultPalette, CurrentSearch: search.DefaultCurrentColor},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) Filename() string {
	return a.filename
}

func (a *App) Alignment() *alignment.Alignment {
	return a.alignment
}

func (a *App) NumSeq() int {
	return a.alignment.NumSeq()
}

func (a *App) AlnLen() int {
	return a.alignment.AlnLen()
}

func (a *App) Records() []seq.Record {
	return a.records
}

func (a *App) RecordByID(id seq.ID) (seq.Record, bool) {
	if id < 0 || int(id) >= len(a.records) {
		return seq.Record{}, false
	}
	return a.records[id], true
}

func (a *App) Colors() Colors {
	return a.colors
}

func (a *App) Tools() Tools {
	return a.tools
}

func (a *App) Logger() *log.Logger {
	return a.logger
}

func (a *App) Notes() string {
	return a.notes
}

func (a *App) SetNotes(notes string) {
	a.notes = notes
}

func (a *App) ViewNotes() string {
	return a.viewNotes
}

func (a *App) SetViewNotes(notes string) {
	a.viewNotes = notes
	a.views[a.current].Notes = notes
}

func (a *App) stem() string {
	return strings.TrimSuffix(a.filename, filepath.Ext(a.filename))
}

// RejectedOutputPath is where rejected records are appended.
func (a *App) RejectedOutputPath() string {
	return a.stem() + ".rejected.fa"
}

func (a *App) CurrentViewOutputPath() string {
	if a.outputPath != "" {
		return a.outputPath
	}
	return a.stem() + "." + a.current + ".fa"
}

func (a *App) SetViewOutputPath(path string) {
	a.outputPath = path
	a.views[a.current].OutputPath = path
}

// DefaultSessionPath derives the session file name from the source file.
func (a *App) DefaultSessionPath() string {
	return a.stem() + ".msfr"
}

func (a *App) headerOf(id seq.ID) string {
	return a.records[id].Header
}

func (a *App) materialize() {
	rows := make([]seq.Record, len(a.rowIDs))
	for i, id := range a.rowIDs {
		rows[i] = a.records[id]
	}
	a.alignment = alignment.FromRecords(rows)
}
