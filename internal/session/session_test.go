package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/search"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s"+Extension)
	cursor := 1
	src := &File{
		Version:        Version,
		SourceFilename: "aln.fa",
		Headers:        []string{"a", "b"},
		Sequences:      []string{"AC", "GT"},
		Views: []View{{
			Name:            "original",
			SequenceIDs:     []int{0, 1},
			ActiveSearchIDs: []int{1},
			CursorID:        &cursor,
			CurrentSearch:   &CurrentSearch{Kind: search.Emboss, Pattern: "1 AC"},
		}},
		CurrentView: "original",
		SavedSearches: []SearchEntry{
			{ID: 1, Name: "m", Query: "AC", Kind: search.Regex, Enabled: true, Color: search.Color{R: 1, G: 2, B: 3}},
		},
	}
	require.NoError(t, Write(path, src))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestReadLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	doc := `{"version":1,"source_filename":"x","headers":["a"],"sequences":["A"],
"saved_searches":[],"tree_newick":"(a);","current_search":{"kind":"regex","pattern":"A"},
"label_search":{"pattern":"a","source":"regex"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got.Views)
	assert.Equal(t, "(a);", got.TreeNewick)
	require.NotNil(t, got.CurrentSearch)
	assert.Equal(t, search.Regex, got.CurrentSearch.Kind)
	require.NotNil(t, got.LabelSearch.Source)
	assert.Equal(t, search.FromRegex, *got.LabelSearch.Source)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"headers":["a"],"sequences":[]}`), 0o644))
	_, err = Read(bad)
	assert.Error(t, err)
}
