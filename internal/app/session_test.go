package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/order"
	"msafara/internal/search"
	"msafara/internal/seq"
	"msafara/internal/session"
)

func TestSessionSaveAndLoad(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2", "R3"}, []string{"AA", "BB", "AA"})
	require.NoError(t, a.SetTreeFromNewick("(R1,(R2,R3));"))
	a.SetNotes("Session notes")
	a.SetViewNotes("View notes")
	require.NoError(t, a.AddSavedSearchWithKind("motif", "AA", search.Regex))
	require.NoError(t, a.RegexSearchSequences("AA"))
	a.SetLabelMatchesFromTree([]Rank{0, 2}, 0, 2)

	path := filepath.Join(t.TempDir(), "test"+session.Extension)
	require.NoError(t, a.SaveSession(path))

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NumSeq())
	assert.Len(t, loaded.TreeLines(), 3)
	assert.NotNil(t, loaded.Tree())
	assert.Len(t, loaded.SavedSearches(), 1)
	p, ok := loaded.CurrentSeqSearchPattern()
	require.True(t, ok)
	assert.Equal(t, "AA", p)
	assert.Equal(t, []Rank{0, 2}, loaded.SelectionRanks())
	assert.Equal(t, "Session notes", loaded.Notes())
	assert.Equal(t, "View notes", loaded.ViewNotes())
	assert.Equal(t, a.TreeLines(), loaded.TreeLines())
	assert.Equal(t, search.FromTree, loaded.LabelSearch().Source)
}

func TestSessionKeepsSavedSearchColours(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2"}, []string{"ACGT", "AACC"})
	for _, q := range []string{"A", "C", "AC"} {
		require.NoError(t, a.AddSavedSearch(q, q))
	}
	require.True(t, a.DeleteSavedSearch(0))
	path := filepath.Join(t.TempDir(), "colours"+session.Extension)
	require.NoError(t, a.SaveSession(path))

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	require.NoError(t, a.AddSavedSearch("G", "G"))
	require.NoError(t, loaded.AddSavedSearch("G", "G"))

	want := a.SavedSearches()
	got := loaded.SavedSearches()
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].Color, got[i].Color, want[i].Name)
	}
	assert.NotEqual(t, got[1].Color, got[2].Color)
}

func TestSessionRestoresViewsAndRejections(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2", "R3", "R4"}, []string{"AAAA", "AAAC", "ACCC", "CCCC"})
	_, err := a.RejectSequences([]Rank{3}, filepath.Join(t.TempDir(), "rej.fa"))
	require.NoError(t, err)
	require.NoError(t, a.SelectLabelByRank(2))
	require.NoError(t, a.SelectLabelByRank(0))
	require.NoError(t, a.CreateViewFromSelection("picked"))
	require.NoError(t, a.SwitchView("picked"))
	require.NoError(t, a.RegexSearchLabels("R3"))
	a.NextOrderingCriterion()
	a.NextMetric()
	require.NoError(t, a.AddSavedSearch("c", "C"))
	require.NoError(t, a.SwitchView(FilteredView))
	require.NoError(t, a.RegexSearchSequences("CC"))

	path := filepath.Join(t.TempDir(), "s.msfr")
	require.NoError(t, a.SaveSession(path))
	loaded, err := LoadSession(path)
	require.NoError(t, err)

	assert.Equal(t, a.ViewNames(), loaded.ViewNames())
	assert.Equal(t, FilteredView, loaded.CurrentViewName())
	assert.Equal(t, []seq.ID{3}, loaded.RejectedIDs())
	assert.Equal(t, 3, loaded.NumSeq())
	total, with := loaded.SeqSearchCounts()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, with)

	require.NoError(t, loaded.SwitchView("picked"))
	assert.Equal(t, []string{"R1", "R3"}, loaded.Alignment().Headers)
	assert.Equal(t, []string{"R1", "R3"}, loaded.UserOrdering())
	assert.Equal(t, order.MetricIncr, loaded.SeqOrdering())
	assert.Equal(t, order.SeqLen, loaded.Metric())
	assert.Equal(t, []int{1}, loaded.LabelSearch().Matches)
	assert.Equal(t, []int{1}, loaded.ActiveSearchIDs())
}

func TestLegacySessionBuildsOriginalView(t *testing.T) {
	current := 1
	f := &session.File{
		Version:        1,
		SourceFilename: "old.fa",
		Headers:        []string{"R1", "R2"},
		Sequences:      []string{"AC", "AA"},
		SavedSearches:  []session.SearchEntry{{ID: 1, Name: "a", Query: "A", Kind: search.Regex, Enabled: true}},
		TreeNewick:     "(R2,R1);",
		CurrentSearch:  &session.CurrentSearch{Kind: search.Regex, Pattern: "A", CurrentMatch: &current},
	}
	a, err := FromSessionFile(f)
	require.NoError(t, err)
	assert.Equal(t, OriginalView, a.CurrentViewName())
	assert.Equal(t, []string{OriginalView}, a.ViewNames())
	assert.True(t, a.HasTreePanel())
	m, ok := a.CurrentSeqMatch()
	require.True(t, ok)
	assert.Equal(t, search.Match{SeqIndex: 1, Start: 0, End: 1}, m)
	assert.Equal(t, []int{1}, a.ActiveSearchIDs())
}

func TestMissingCurrentViewFallsBackToOriginal(t *testing.T) {
	f := &session.File{
		Version:     session.Version,
		Headers:     []string{"R1"},
		Sequences:   []string{"AC"},
		Views:       []session.View{{Name: OriginalView, SequenceIDs: []int{0}}},
		CurrentView: "gone",
	}
	a, err := FromSessionFile(f)
	require.NoError(t, err)
	assert.Equal(t, OriginalView, a.CurrentViewName())
	assert.Equal(t, 1, a.NumSeq())
}

func TestSetTreeRejectsMismatchedLeaves(t *testing.T) {
	a := threeRecordApp(t)
	var fe *FormatError
	assert.ErrorAs(t, a.SetTreeFromNewick("(R1,R2);"), &fe)
	assert.ErrorAs(t, a.SetTreeFromNewick("(R1,R2,X);"), &fe)
	assert.ErrorAs(t, a.SetTreeFromNewick("(R1,(R2,R3);"), &fe)
	assert.False(t, a.HasTreePanel())
}

func TestSetTreeOrderingFromTree(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2"}, []string{"AA", "BB"})
	assert.Error(t, a.SetTreeOrderingFromTree())
	require.NoError(t, a.SetTreeFromNewick("(R2,R1);"))
	require.NoError(t, a.SetTreeOrderingFromTree())
	assert.Equal(t, order.User, a.SeqOrdering())
	assert.Equal(t, []int{1, 0}, a.Ordering())
	ranks, err := a.TreeLeafRanks()
	require.NoError(t, err)
	assert.Equal(t, []Rank{1, 0}, ranks)
}
