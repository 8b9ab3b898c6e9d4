package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Color struct {
	R, G, B uint8
}

func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalJSON encodes the colour as an [r, g, b] triple.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.R, c.G, c.B})
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var rgb [3]uint8
	if err := json.Unmarshal(b, &rgb); err != nil {
		return err
	}
	*c = Color{R: rgb[0], G: rgb[1], B: rgb[2]}
	return nil
}

var DefaultPalette = []Color{
	{R: 0xe6, G: 0x19, B: 0x4b},
	{R: 0x3c, G: 0xb4, B: 0x4b},
	{R: 0xff, G: 0xe1, B: 0x19},
	{R: 0x43, G: 0x63, B: 0xd8},
	{R: 0xf5, G: 0x82, B: 0x31},
	{R: 0x91, G: 0x1e, B: 0xb4},
	{R: 0x46, G: 0xf0, B: 0xf0},
	{R: 0xf0, G: 0x32, B: 0xe6},
}

var DefaultCurrentColor = Color{R: 0xff, G: 0xff, B: 0xff}

var ErrEmptyQuery = errors.New("search query is empty")

// Saved is a named search definition. Spans is a cache over the rows of the
// current view and is recomputed from Query and Kind whenever rows change.
type Saved struct {
	ID      int
	Name    string
	Query   string
	Kind    Kind
	Enabled bool
	Color   Color
	Spans   [][]Span
}

type Registry struct {
	searches  []Saved
	palette   []Color
	nextColor int
}

func NewRegistry(palette []Color) *Registry {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Registry{palette: append([]Color(nil), palette...)}
}

func (r *Registry) SetPalette(palette []Color) {
	if len(palette) > 0 {
		r.palette = append([]Color(nil), palette...)
	}
}

func (r *Registry) Len() int {
	return len(r.searches)
}

func (r *Registry) List() []Saved {
	return r.searches
}

// Add appends an enabled search; its colour is the next palette entry.
func (r *Registry) Add(name, query string, kind Kind, spans [][]Span) (Saved, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Saved{}, ErrEmptyQuery
	}
	if strings.TrimSpace(name) == "" {
		name = query
	}
	s := Saved{
		ID:      len(r.searches) + 1,
		Name:    name,
		Query:   query,
		Kind:    kind,
		Enabled: true,
		Color:   r.palette[r.nextColor%len(r.palette)],
		Spans:   spans,
	}
	r.nextColor++
	r.searches = append(r.searches, s)
	return s, nil
}

// Delete removes the search at index i and renumbers ids densely from 1.
// It returns the id the search had before deletion.
func (r *Registry) Delete(i int) (int, bool) {
	if i < 0 || i >= len(r.searches) {
		return 0, false
	}
	id := r.searches[i].ID
	r.searches = append(r.searches[:i], r.searches[i+1:]...)
	for j := range r.searches {
		r.searches[j].ID = j + 1
	}
	return id, true
}

func (r *Registry) Toggle(i int) bool {
	if i < 0 || i >= len(r.searches) {
		return false
	}
	r.searches[i].Enabled = !r.searches[i].Enabled
	return true
}

func (r *Registry) ActiveIDs() []int {
	var ids []int
	for _, s := range r.searches {
		if s.Enabled {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// SetActive enables exactly the searches whose id is in ids.
func (r *Registry) SetActive(ids []int) {
	on := make(map[int]bool, len(ids))
	for _, id := range ids {
		on[id] = true
	}
	for i := range r.searches {
		r.searches[i].Enabled = on[r.searches[i].ID]
	}
}

// NextColor is the palette position the next added search will take.
func (r *Registry) NextColor() int {
	return r.nextColor
}

// Restore replaces the registry contents, keeping the stored colours. The
// palette position resumes after nextColor or after the furthest palette
// entry a restored search holds, whichever is later, so a live colour is not
// handed out again.
func (r *Registry) Restore(searches []Saved, nextColor int) {
	r.searches = append([]Saved(nil), searches...)
	r.nextColor = max(0, nextColor)
	for _, s := range r.searches {
		for j, c := range r.palette {
			if c == s.Color {
				r.nextColor = max(r.nextColor, j+1)
				break
			}
		}
	}
}

// Recompute refreshes every search's spans. A search that fails to run keeps
// no spans.
func (r *Registry) Recompute(run func(query string, kind Kind) ([][]Span, error)) {
	for i := range r.searches {
		spans, err := run(r.searches[i].Query, r.searches[i].Kind)
		if err != nil {
			spans = nil
		}
		r.searches[i].Spans = spans
	}
}

// RemapIDs rewrites a set of saved-search ids after the search that had id
// deleted was removed.
func RemapIDs(ids []int, deleted int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == deleted:
		case id > deleted:
			out = append(out, id-1)
		default:
			out = append(out, id)
		}
	}
	return out
}
