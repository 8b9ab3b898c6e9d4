package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/seq"
)

func TestRejectFromOriginal(t *testing.T) {
	a := threeRecordApp(t)
	path := filepath.Join(t.TempDir(), "rejected.fa")

	res, err := a.RejectSequences([]Rank{1}, path)
	require.NoError(t, err)
	assert.Equal(t, WrittenToFile, res.Kind)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []string{"R2"}, res.Headers)

	rejected, ok := a.View(RejectedView)
	require.True(t, ok)
	assert.Equal(t, []seq.ID{1}, rejected.SequenceIDs)
	filtered, ok := a.View(FilteredView)
	require.True(t, ok)
	assert.Equal(t, []seq.ID{0, 2}, filtered.SequenceIDs)
	assert.Equal(t, []string{OriginalView, FilteredView, RejectedView}, a.ViewNames())
	assert.Equal(t, 3, a.NumSeq())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ">R2\nBB\n", string(data))

	res, err = a.RejectSequences([]Rank{1}, path)
	require.NoError(t, err)
	assert.Equal(t, AlreadyRejected, res.Kind)
	assert.Zero(t, res.Count)
}

func TestRejectFromFilteredAppends(t *testing.T) {
	a := threeRecordApp(t)
	path := filepath.Join(t.TempDir(), "rejected.fa")
	_, err := a.RejectSequences([]Rank{1}, path)
	require.NoError(t, err)

	require.NoError(t, a.SwitchView(FilteredView))
	assert.Equal(t, []string{"R1", "R3"}, a.Alignment().Headers)
	res, err := a.RejectSequences([]Rank{1, 0}, path)
	require.NoError(t, err)
	assert.Equal(t, WrittenToFile, res.Kind)
	assert.Equal(t, 2, res.Count)
	assert.Zero(t, a.NumSeq())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ">R2\nBB\n>R1\nAA\n>R3\nCC\n", string(data))
	assert.Equal(t, []seq.ID{0, 1, 2}, a.RejectedIDs())

	require.NoError(t, a.SwitchView(RejectedView))
	assert.Equal(t, 3, a.NumSeq())
	res, err = a.RejectSequences([]Rank{0}, path)
	require.NoError(t, err)
	assert.Equal(t, AlreadyRejected, res.Kind)
}

func TestRejectInCustomViewOnlyRemoves(t *testing.T) {
	a := threeRecordApp(t)
	require.NoError(t, a.CreateViewFromCurrent("custom"))
	require.NoError(t, a.SwitchView("custom"))
	path := filepath.Join(t.TempDir(), "rejected.fa")

	res, err := a.RejectSequences([]Rank{0}, path)
	require.NoError(t, err)
	assert.Equal(t, RemovedFromView, res.Kind)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 2, a.NumSeq())
	assert.NoFileExists(t, path)
	assert.Empty(t, a.RejectedIDs())
}

func TestRejectWriteFailureLeavesStateUnchanged(t *testing.T) {
	a := threeRecordApp(t)
	path := filepath.Join(t.TempDir(), "missing", "rejected.fa")
	_, err := a.RejectSequences([]Rank{0}, path)
	require.Error(t, err)
	assert.Empty(t, a.RejectedIDs())
	_, ok := a.View(FilteredView)
	assert.False(t, ok)
}

func TestAppendFastaWithBackupRestoresOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rejected.fa")
	require.NoError(t, os.WriteFile(path, []byte(">old\nAC\n"), 0o644))
	require.NoError(t, appendFastaWithBackup(path, []seq.Entry{{Header: "new", Sequence: "GT"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ">old\nAC\n>new\nGT\n", string(data))

	// A directory cannot be opened for appending.
	err = appendFastaWithBackup(dir, []seq.Entry{{Header: "x", Sequence: "A"}})
	assert.Error(t, err)
	assert.DirExists(t, dir)
}
