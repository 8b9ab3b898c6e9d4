package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddToggleDelete(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Add("", "  ", Regex, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	s, err := r.Add("", "CG", Regex, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ID)
	assert.Equal(t, "CG", s.Name)
	assert.True(t, s.Enabled)

	assert.True(t, r.Toggle(0))
	assert.False(t, r.List()[0].Enabled)
	assert.False(t, r.Toggle(3))

	id, ok := r.Delete(0)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Zero(t, r.Len())
}

func TestRegistryColoursAreStable(t *testing.T) {
	palette := []Color{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
	r := NewRegistry(palette)
	for _, q := range []string{"A", "B", "C"} {
		_, err := r.Add(q, q, Regex, nil)
		require.NoError(t, err)
	}
	_, ok := r.Delete(0)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, []int{r.List()[0].ID, r.List()[1].ID})
	assert.Equal(t, Color{2, 0, 0}, r.List()[0].Color)
	assert.Equal(t, Color{3, 0, 0}, r.List()[1].Color)

	s, err := r.Add("D", "D", Regex, nil)
	require.NoError(t, err)
	assert.Equal(t, Color{1, 0, 0}, s.Color)
}

func TestRegistryRestoreResumesPalette(t *testing.T) {
	palette := []Color{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}
	stored := []Saved{
		{ID: 1, Name: "C", Query: "C", Color: Color{2, 0, 0}},
		{ID: 2, Name: "AC", Query: "AC", Color: Color{3, 0, 0}},
	}

	r := NewRegistry(palette)
	r.Restore(stored, 3)
	assert.Equal(t, 3, r.NextColor())
	s, err := r.Add("G", "G", Regex, nil)
	require.NoError(t, err)
	assert.Equal(t, Color{4, 0, 0}, s.Color)

	legacy := NewRegistry(palette)
	legacy.Restore(stored, 0)
	s, err = legacy.Add("G", "G", Regex, nil)
	require.NoError(t, err)
	assert.Equal(t, Color{4, 0, 0}, s.Color)

	wrapped := NewRegistry(palette)
	wrapped.Restore(stored, 6)
	s, err = wrapped.Add("G", "G", Regex, nil)
	require.NoError(t, err)
	assert.Equal(t, Color{3, 0, 0}, s.Color)
}

func TestRegistrySetActive(t *testing.T) {
	r := NewRegistry(nil)
	for _, q := range []string{"A", "B", "C"} {
		_, err := r.Add(q, q, Regex, nil)
		require.NoError(t, err)
	}
	r.SetActive([]int{2})
	assert.Equal(t, []int{2}, r.ActiveIDs())
}

func TestRegistryRecompute(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Add("a", "A", Regex, nil)
	require.NoError(t, err)
	r.Recompute(func(q string, k Kind) ([][]Span, error) {
		st, err := SearchRegex([]string{"AA", "C"}, q)
		if err != nil {
			return nil, err
		}
		return st.Spans, nil
	})
	assert.Len(t, r.List()[0].Spans, 2)
}

func TestRemapIDs(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, RemapIDs([]int{1, 2, 3, 4}, 2))
	assert.Equal(t, []int{}, RemapIDs([]int{2}, 2))
}

func TestColor(t *testing.T) {
	c, err := ParseHexColor("#010203")
	require.NoError(t, err)
	assert.Equal(t, Color{1, 2, 3}, c)
	assert.Equal(t, "#010203", c.Hex())

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, "[1,2,3]", string(b))

	var back Color
	require.NoError(t, json.Unmarshal([]byte("[4,5,6]"), &back))
	assert.Equal(t, Color{4, 5, 6}, back)

	_, err = ParseHexColor("#12")
	assert.Error(t, err)
}
