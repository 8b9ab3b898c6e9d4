// Package coord translates between gapped (alignment column) and ungapped
// (residue) offsets of a single aligned sequence.
package coord

func IsGap(c byte) bool {
	return c == '-' || c == '.' || c == ' '
}

// Map holds the residues of a gapped sequence and, for each residue, the
// column it occupies in the gapped string.
type Map struct {
	Residues string
	Cols     []int
}

func Ungap(gapped string) Map {
	res := make([]byte, 0, len(gapped))
	cols := make([]int, 0, len(gapped))
	for i := 0; i < len(gapped); i++ {
		if IsGap(gapped[i]) {
			continue
		}
		res = append(res, gapped[i])
		cols = append(cols, i)
	}
	return Map{Residues: string(res), Cols: cols}
}

func (m Map) Len() int {
	return len(m.Cols)
}

// Span converts a half-open residue range to a half-open column range.
// Empty or out-of-range input reports false.
func (m Map) Span(start, end int) (int, int, bool) {
	if start < 0 || end <= start || end > len(m.Cols) {
		return 0, 0, false
	}
	return m.Cols[start], m.Cols[end-1] + 1, true
}

// SpanFromOneBased converts a 1-based inclusive residue range, as reported by
// external tools, to a half-open column range.
func (m Map) SpanFromOneBased(start, end int) (int, int, bool) {
	if start > end {
		start, end = end, start
	}
	return m.Span(start-1, end)
}

// Column returns the gapped column of the 1-based residue position pos.
func (m Map) Column(pos int) (int, bool) {
	if pos < 1 || pos > len(m.Cols) {
		return 0, false
	}
	return m.Cols[pos-1], true
}
