// Package session reads and writes the JSON session document.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"msafara/internal/search"
)

const Version = 2

// Extension is appended to session file names by default.
const Extension = ".msfr"

type File struct {
	Version        uint32        `json:"version"`
	SourceFilename string        `json:"source_filename"`
	Headers        []string      `json:"headers"`
	Sequences      []string      `json:"sequences"`
	Views          []View        `json:"views,omitempty"`
	CurrentView    string        `json:"current_view,omitempty"`
	SavedSearches  []SearchEntry `json:"saved_searches"`
	NextColor      int           `json:"next_search_color,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	RejectedIDs    []int         `json:"rejected_ids,omitempty"`

	// Single-view layout written by version 1; read only when Views is empty.
	TreeNewick    string         `json:"tree_newick,omitempty"`
	TreeLines     []string       `json:"tree_lines,omitempty"`
	CurrentSearch *CurrentSearch `json:"current_search,omitempty"`
	LabelSearch   *LabelSearch   `json:"label_search,omitempty"`
}

type View struct {
	Name            string         `json:"name"`
	SequenceIDs     []int          `json:"sequence_ids"`
	TreeNewick      string         `json:"tree_newick,omitempty"`
	TreeLines       []string       `json:"tree_lines,omitempty"`
	CurrentSearch   *CurrentSearch `json:"current_search,omitempty"`
	LabelSearch     *LabelSearch   `json:"label_search,omitempty"`
	ActiveSearchIDs []int          `json:"active_search_ids"`
	UserOrdering    []string       `json:"user_ordering,omitempty"`
	OutputPath      string         `json:"output_path,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	SelectedIDs     []int          `json:"selected_ids,omitempty"`
	CursorID        *int           `json:"cursor_id,omitempty"`
	Ordering        string         `json:"ordering,omitempty"`
	Metric          string         `json:"metric,omitempty"`
}

type SearchEntry struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Query   string       `json:"query"`
	Kind    search.Kind  `json:"kind"`
	Enabled bool         `json:"enabled"`
	Color   search.Color `json:"color"`
}

type CurrentSearch struct {
	Kind         search.Kind `json:"kind"`
	Pattern      string      `json:"pattern"`
	CurrentMatch *int        `json:"current_match,omitempty"`
}

type LabelSearch struct {
	Pattern   string              `json:"pattern"`
	Current   *int                `json:"current,omitempty"`
	Matches   []int               `json:"matches,omitempty"`
	Source    *search.LabelSource `json:"source,omitempty"`
	TreeRange *[2]int             `json:"tree_range,omitempty"`
}

func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if len(f.Headers) != len(f.Sequences) {
		return nil, fmt.Errorf("session %s: %d headers but %d sequences", path, len(f.Headers), len(f.Sequences))
	}
	return &f, nil
}

// Write replaces path atomically by writing a sibling temp file first.
func Write(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
