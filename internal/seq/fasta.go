package seq

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// ParseFasta reads FASTA records from r. The header is the whole line after
// '>'; sequence lines are concatenated without whitespace. Letters are kept
// as written, gaps included.
func ParseFasta(r io.Reader) ([]Entry, error) {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein)))
	var entries []Entry
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected sequence type %T", sc.Seq())
		}
		header := s.Name()
		if desc := s.Description(); desc != "" {
			header += " " + desc
		}
		entries = append(entries, Entry{Header: strings.TrimSpace(header), Sequence: letters(s.Seq)})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

func letters(ls alphabet.Letters) string {
	b := make([]byte, len(ls))
	for i, l := range ls {
		b[i] = byte(l)
	}
	return string(b)
}

func ReadFastaFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ParseFasta(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// WriteFasta writes one unwrapped sequence line per record.
func WriteFasta(w io.Writer, entries []Entry) error {
	fw := fasta.NewWriter(w, 1)
	for _, e := range entries {
		name, desc, _ := strings.Cut(e.Header, " ")
		s := linear.NewSeq(name, alphabet.BytesToLetters([]byte(e.Sequence)), alphabet.Protein)
		s.Desc = desc
		fw.Width = max(1, len(e.Sequence))
		if _, err := fw.Write(s); err != nil {
			return err
		}
	}
	return nil
}
