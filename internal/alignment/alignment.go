// Package alignment holds the materialized rows of a view together with the
// per-sequence metrics used for ordering.
package alignment

import (
	"slices"
	"strings"

	"msafara/internal/coord"
	"msafara/internal/seq"
)

type Alignment struct {
	Headers   []string
	Sequences []string
	Consensus string
	// Fraction of columns where the sequence agrees with the consensus.
	IDWrtConsensus []float64
	// Ungapped length divided by the longest ungapped length.
	RelativeSeqLen []float64
}

func FromVecs(headers, sequences []string) *Alignment {
	a := &Alignment{
		Headers:   append([]string(nil), headers...),
		Sequences: append([]string(nil), sequences...),
	}
	a.recompute()
	return a
}

func FromRecords(records []seq.Record) *Alignment {
	headers := make([]string, len(records))
	sequences := make([]string, len(records))
	for i, r := range records {
		headers[i] = r.Header
		sequences[i] = r.Sequence
	}
	return FromVecs(headers, sequences)
}

func (a *Alignment) NumSeq() int {
	return len(a.Sequences)
}

func (a *Alignment) AlnLen() int {
	n := 0
	for _, s := range a.Sequences {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

// Remove drops the row at rank and refreshes metrics.
func (a *Alignment) Remove(rank int) {
	if rank < 0 || rank >= len(a.Sequences) {
		return
	}
	a.Headers = append(a.Headers[:rank], a.Headers[rank+1:]...)
	a.Sequences = append(a.Sequences[:rank], a.Sequences[rank+1:]...)
	a.recompute()
}

// RemoveRows drops several rows, highest rank first, and refreshes metrics
// once. Duplicate or out-of-range ranks are ignored.
func (a *Alignment) RemoveRows(ranks []int) {
	sorted := append([]int(nil), ranks...)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		if r < 0 || r >= len(a.Sequences) {
			continue
		}
		a.Headers = append(a.Headers[:r], a.Headers[r+1:]...)
		a.Sequences = append(a.Sequences[:r], a.Sequences[r+1:]...)
	}
	a.recompute()
}

func (a *Alignment) recompute() {
	a.Consensus = consensus(a.Sequences, a.AlnLen())
	n := len(a.Sequences)
	a.IDWrtConsensus = make([]float64, n)
	a.RelativeSeqLen = make([]float64, n)
	alnLen := len(a.Consensus)
	maxLen := 0
	lens := make([]int, n)
	for i, s := range a.Sequences {
		lens[i] = coord.Ungap(s).Len()
		if lens[i] > maxLen {
			maxLen = lens[i]
		}
	}
	for i, s := range a.Sequences {
		if alnLen > 0 {
			same := 0
			for col := 0; col < len(s) && col < alnLen; col++ {
				if upper(s[col]) == a.Consensus[col] {
					same++
				}
			}
			a.IDWrtConsensus[i] = float64(same) / float64(alnLen)
		}
		if maxLen > 0 {
			a.RelativeSeqLen[i] = float64(lens[i]) / float64(maxLen)
		}
	}
}

// consensus takes the most frequent character per column, case-insensitively.
// Ties go to the character seen first in row order.
func consensus(sequences []string, alnLen int) string {
	var b strings.Builder
	b.Grow(alnLen)
	for col := 0; col < alnLen; col++ {
		var counts [256]int
		var best byte = '-'
		bestCount := 0
		for _, s := range sequences {
			if col >= len(s) {
				continue
			}
			c := upper(s[col])
			counts[c]++
			if counts[c] > bestCount {
				best = c
				bestCount = counts[c]
			}
		}
		b.WriteByte(best)
	}
	return b.String()
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
