package search

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"msafara/internal/coord"
	"msafara/internal/seq"
)

var ErrToolNotConfigured = errors.New("EMBOSS bin dir not configured")

// Tool runs EMBOSS fuzznuc/fuzzpro over the rows of a view.
type Tool struct {
	BinDir string
	Logger *log.Logger
}

func (t Tool) Configured() bool {
	return strings.TrimSpace(t.BinDir) != ""
}

// ParseToolQuery splits an optional leading mismatch count from the motif:
// "2 ABC" allows two mismatches, "ABC" allows none.
func ParseToolQuery(query string) (int, bool, string) {
	query = strings.TrimSpace(query)
	head, rest, found := strings.Cut(query, " ")
	if !found {
		return 0, false, query
	}
	n, err := strconv.Atoi(head)
	rest = strings.TrimSpace(rest)
	if err != nil || n < 0 || rest == "" {
		return 0, false, query
	}
	return n, true, rest
}

// IsNucleotide reports whether every residue is one of A, C, G or T.
func IsNucleotide(sequences []string) bool {
	for _, s := range sequences {
		for i := 0; i < len(s); i++ {
			if coord.IsGap(s[i]) {
				continue
			}
			switch s[i] {
			case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
			default:
				return false
			}
		}
	}
	return true
}

func (t Tool) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.New(io.Discard)
}

func (t Tool) Search(headers, sequences []string, pattern string) (*SeqState, error) {
	if !t.Configured() {
		return nil, ErrToolNotConfigured
	}
	mismatch, hasMismatch, motif := ParseToolQuery(pattern)
	if motif == "" {
		return nil, errors.New("empty motif")
	}
	program := "fuzzpro"
	if IsNucleotide(sequences) {
		program = "fuzznuc"
	}

	dir, err := os.MkdirTemp("", "msafara-emboss-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			t.logger().Debug("temp dir not removed", "path", dir, "err", err)
		}
	}()
	in := filepath.Join(dir, "input.fa")
	out := filepath.Join(dir, "output.gff")
	if err := writeUngapped(in, headers, sequences); err != nil {
		return nil, fmt.Errorf("write %s input: %w", program, err)
	}

	args := []string{
		"-sequence", in,
		"-pattern", strings.ToUpper(motif),
		"-rformat2", "gff",
		"-outfile", out,
		"-auto",
	}
	if hasMismatch {
		args = append(args, "-pmismatch", strconv.Itoa(mismatch))
	}
	bin := filepath.Join(t.BinDir, program)
	start := time.Now()
	output, err := exec.Command(bin, args...).CombinedOutput()
	t.logger().Debug("emboss finished", "program", bin, "args", args, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", program, err, strings.TrimSpace(string(output)))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read %s output: %w", program, err)
	}
	return ParseFeatures(headers, sequences, string(data), pattern), nil
}

func writeUngapped(path string, headers, sequences []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	entries := make([]seq.Entry, len(sequences))
	for i, s := range sequences {
		entries[i] = seq.Entry{Header: headers[i], Sequence: strings.ToUpper(coord.Ungap(s).Residues)}
	}
	if err := seq.WriteFasta(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseFeatures reads tab-separated feature lines (seqid, source, feature,
// start, end, ...) with 1-based inclusive coordinates. The seqid may be a
// full header or its first whitespace token. Lines that do not resolve to a
// row or a valid residue range are skipped.
func ParseFeatures(headers, sequences []string, output, pattern string) *SeqState {
	index := make(map[string]int, len(headers))
	tokenCount := map[string]int{}
	for _, h := range headers {
		if f := strings.Fields(h); len(f) > 0 {
			tokenCount[f[0]]++
		}
	}
	for i, h := range headers {
		if f := strings.Fields(h); len(f) > 0 && tokenCount[f[0]] == 1 {
			if _, ok := index[f[0]]; !ok {
				index[f[0]] = i
			}
		}
	}
	for i, h := range headers {
		index[h] = i
	}

	maps := make([]*coord.Map, len(sequences))
	spans := make([][]Span, len(sequences))
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			continue
		}
		row, ok := index[strings.TrimSpace(cols[0])]
		if !ok || row >= len(sequences) {
			continue
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(cols[3]))
		end, err2 := strconv.Atoi(strings.TrimSpace(cols[4]))
		if err1 != nil || err2 != nil {
			continue
		}
		if maps[row] == nil {
			m := coord.Ungap(sequences[row])
			maps[row] = &m
		}
		s, e, ok := maps[row].SpanFromOneBased(start, end)
		if !ok {
			continue
		}
		spans[row] = append(spans[row], Span{Start: s, End: e})
	}
	return newSeqState(Emboss, pattern, spans)
}
