// Package search finds matches in sequence labels and sequence content and
// keeps the registry of saved searches.
package search

import (
	"fmt"
	"regexp"
	"strings"

	"msafara/internal/coord"
)

type Kind int

const (
	Regex Kind = iota
	Emboss
)

func (k Kind) String() string {
	switch k {
	case Emboss:
		return "emboss"
	default:
		return "regex"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "regex":
		*k = Regex
	case "emboss":
		*k = Emboss
	default:
		return fmt.Errorf("unknown search kind %q", string(b))
	}
	return nil
}

// Span is a half-open range of alignment columns.
type Span struct {
	Start int
	End   int
}

type Match struct {
	SeqIndex int
	Start    int
	End      int
}

// SeqState is the result of a content search over the rows of a view.
// Spans has one entry per row, in row order.
type SeqState struct {
	Kind        Kind
	Pattern     string
	Spans       [][]Span
	Total       int
	WithMatches int
	Matches     []Match
	Current     int
}

func newSeqState(kind Kind, pattern string, spans [][]Span) *SeqState {
	st := &SeqState{Kind: kind, Pattern: pattern, Spans: spans}
	for i, row := range spans {
		if len(row) > 0 {
			st.WithMatches++
		}
		for _, sp := range row {
			st.Matches = append(st.Matches, Match{SeqIndex: i, Start: sp.Start, End: sp.End})
		}
	}
	st.Total = len(st.Matches)
	return st
}

func (s *SeqState) CurrentMatch() (Match, bool) {
	if s == nil || s.Current < 0 || s.Current >= len(s.Matches) {
		return Match{}, false
	}
	return s.Matches[s.Current], true
}

// Step moves the current match by n with wrap-around.
func (s *SeqState) Step(n int) {
	if s == nil || len(s.Matches) == 0 {
		return
	}
	s.Current = wrap(s.Current+n, len(s.Matches))
}

// HasMatch reports whether row i has at least one span.
func (s *SeqState) HasMatch(i int) bool {
	return s != nil && i >= 0 && i < len(s.Spans) && len(s.Spans[i]) > 0
}

func compileCaseless(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("malformed pattern %q: %w", pattern, err)
	}
	return re, nil
}

// SearchRegex matches pattern case-insensitively against the residues of each
// sequence and reports spans in gapped coordinates. Empty matches are dropped.
func SearchRegex(sequences []string, pattern string) (*SeqState, error) {
	re, err := compileCaseless(pattern)
	if err != nil {
		return nil, err
	}
	spans := make([][]Span, len(sequences))
	for i, s := range sequences {
		m := coord.Ungap(s)
		for _, loc := range re.FindAllStringIndex(m.Residues, -1) {
			start, end, ok := m.Span(loc[0], loc[1])
			if !ok {
				continue
			}
			spans[i] = append(spans[i], Span{Start: start, End: end})
		}
	}
	return newSeqState(Regex, pattern, spans), nil
}

type LabelSource int

const (
	FromRegex LabelSource = iota
	FromTree
)

func (s LabelSource) MarshalText() ([]byte, error) {
	if s == FromTree {
		return []byte("tree"), nil
	}
	return []byte("regex"), nil
}

func (s *LabelSource) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "regex":
		*s = FromRegex
	case "tree":
		*s = FromTree
	default:
		return fmt.Errorf("unknown label search source %q", string(b))
	}
	return nil
}

// LabelState holds the ranks of headers matching a label search.
type LabelState struct {
	Pattern   string
	Source    LabelSource
	Matches   []int
	Current   int
	TreeRange *[2]int
}

func (l *LabelState) CurrentMatch() (int, bool) {
	if l == nil || l.Current < 0 || l.Current >= len(l.Matches) {
		return 0, false
	}
	return l.Matches[l.Current], true
}

func (l *LabelState) Step(n int) {
	if l == nil || len(l.Matches) == 0 {
		return
	}
	l.Current = wrap(l.Current+n, len(l.Matches))
}

func SearchLabels(headers []string, pattern string) (*LabelState, error) {
	re, err := compileCaseless(pattern)
	if err != nil {
		return nil, err
	}
	st := &LabelState{Pattern: pattern, Source: FromRegex}
	for i, h := range headers {
		if re.MatchString(h) {
			st.Matches = append(st.Matches, i)
		}
	}
	return st, nil
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
