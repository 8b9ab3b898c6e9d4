package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/seq"
)

func threeRecordApp(t *testing.T) *App {
	return newTestApp(t, []string{"R1", "R2", "R3"}, []string{"AA", "BB", "CC"})
}

func TestCreateViewFromSelection(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.SelectLabelByRank(1))
	require.NoError(t, a.CreateViewFromSelection("picked"))

	v, ok := a.View("picked")
	require.True(t, ok)
	assert.Equal(t, []seq.ID{1}, v.SequenceIDs)
	assert.Nil(t, v.Tree)
	assert.Equal(t, []string{"R2"}, v.UserOrdering)

	require.NoError(t, a.SwitchView("picked"))
	assert.Equal(t, "picked", a.CurrentViewName())
	assert.Equal(t, 1, a.NumSeq())
	assert.Equal(t, []string{"R2"}, a.Alignment().Headers)
}

func TestCreateViewFromSelectionKeepsScreenOrder(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2", "R3"}, []string{"AAAA", "AAAC", "ACCC"})
	a.NextOrderingCriterion()
	a.SelectAllInView()
	require.NoError(t, a.CreateViewFromSelection("all"))
	v, _ := a.View("all")
	assert.Equal(t, []seq.ID{2, 0, 1}, v.SequenceIDs)
	assert.Equal(t, []string{"R3", "R1", "R2"}, v.UserOrdering)
}

func TestViewNameValidation(t *testing.T) {
	a := threeRecordApp(t)
	var fe *FormatError
	assert.ErrorAs(t, a.CreateViewFromCurrent(""), &fe)
	assert.ErrorAs(t, a.CreateViewFromCurrent(OriginalView), &fe)
	assert.ErrorAs(t, a.CreateViewFromSelection("empty"), &fe)
	require.NoError(t, a.CreateViewFromCurrent("copy"))
	assert.ErrorAs(t, a.CreateViewFromCurrent("copy"), &fe)
	assert.ErrorAs(t, a.SwitchView("missing"), &fe)
	assert.Equal(t, []string{OriginalView, "copy"}, a.ViewNames())
}

func TestRenameAndDeleteView(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.CreateViewFromCurrent("copy"))
	require.NoError(t, a.SwitchView("copy"))
	require.NoError(t, a.RenameView("copy", "work"))
	assert.Equal(t, "work", a.CurrentViewName())
	assert.Equal(t, []string{OriginalView, "work"}, a.ViewNames())

	assert.Error(t, a.RenameView(OriginalView, "x"))
	assert.Error(t, a.DeleteView(OriginalView))

	require.NoError(t, a.DeleteView("work"))
	assert.Equal(t, OriginalView, a.CurrentViewName())
	assert.Equal(t, []string{OriginalView}, a.ViewNames())
}

func TestSwitchToEmptyViewFails(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.CreateViewFromCurrent("copy"))
	require.NoError(t, a.SwitchView("copy"))
	assert.Equal(t, 3, a.RemoveSequences([]Rank{0, 1, 2}))
	require.NoError(t, a.SwitchView(OriginalView))

	err := a.SwitchView("copy")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, OriginalView, a.CurrentViewName())
	assert.Equal(t, 3, a.NumSeq())
}

func TestViewStateSurvivesSwitch(t *testing.T) {
	a := newTestApp(t, []string{"R1", "R2", "R3"}, []string{"AA", "BB", "AA"})
	require.NoError(t, a.CreateViewFromCurrent("copy"))
	require.NoError(t, a.SwitchView("copy"))
	require.NoError(t, a.RegexSearchSequences("aa"))
	require.NoError(t, a.SelectLabelByRank(2))
	a.NextOrderingCriterion()
	a.SetViewNotes("copy notes")

	require.NoError(t, a.SwitchView(OriginalView))
	_, ok := a.CurrentSeqSearchPattern()
	assert.False(t, ok)
	assert.Empty(t, a.SelectionRanks())
	assert.Empty(t, a.ViewNotes())

	require.NoError(t, a.SwitchView("copy"))
	p, ok := a.CurrentSeqSearchPattern()
	require.True(t, ok)
	assert.Equal(t, "aa", p)
	assert.Equal(t, []Rank{2}, a.SelectionRanks())
	r, ok := a.CursorRank()
	require.True(t, ok)
	assert.Equal(t, Rank(2), r)
	assert.Equal(t, "o:%id↑", a.OrderingStatusLabel())
	assert.Equal(t, "copy notes", a.ViewNotes())
	assertInverse(t, a)
}

func TestAddIDsToView(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.SelectLabelByRank(1))
	require.NoError(t, a.CreateViewFromSelection("picked"))

	n, err := a.AddIDsToView("picked", []seq.ID{0, 1, 7})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	v, _ := a.View("picked")
	assert.Equal(t, []seq.ID{1, 0}, v.SequenceIDs)
	assert.Nil(t, v.UserOrdering)

	_, err = a.AddIDsToView(OriginalView, []seq.ID{0})
	assert.Error(t, err)
	require.NoError(t, a.SwitchView("picked"))
	_, err = a.AddIDsToView("picked", []seq.ID{2})
	assert.Error(t, err)
}

func TestIDsAndRanks(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.SelectLabelByRank(0))
	require.NoError(t, a.SelectLabelByRank(2))
	require.NoError(t, a.CreateViewFromSelection("ends"))
	require.NoError(t, a.SwitchView("ends"))

	assert.Equal(t, []seq.ID{0, 2}, a.IDsForRanks([]Rank{0, 1, 5}))
	assert.Equal(t, []Rank{1}, a.RanksForIDs([]seq.ID{1, 2}))
}
