package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"msafara/internal/coord"
	"msafara/internal/seq"
	"msafara/internal/tree"
)

var ErrMafftNotFound = errors.New("mafft not found")

func (a *App) mafftPath() (string, error) {
	if dir := strings.TrimSpace(a.tools.MafftBinDir); dir != "" {
		path := filepath.Join(dir, "mafft")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w in %s", ErrMafftNotFound, dir)
		}
		return path, nil
	}
	path, err := exec.LookPath("mafft")
	if err != nil {
		return "", ErrMafftNotFound
	}
	return path, nil
}

// RealignWithMafft realigns the rows of the active view and installs the
// guide tree mafft writes next to its input as the view's tree.
func (a *App) RealignWithMafft(ctx context.Context) error {
	mpath, err := a.mafftPath()
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "msafara-mafft-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	// Rows are named by their 1-based position so mafft's output and leaf
	// names map back without depending on header text.
	input := filepath.Join(dir, "input.fa")
	entries := make([]seq.Entry, len(a.rowIDs))
	for r := range a.rowIDs {
		entries[r] = seq.Entry{Header: strconv.Itoa(r + 1), Sequence: coord.Ungap(a.alignment.Sequences[r]).Residues}
	}
	f, err := os.Create(input)
	if err != nil {
		return err
	}
	if err := seq.WriteFasta(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	args := []string{"--auto", "--treeout", input}
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, mpath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()
	a.logger.Debug("mafft finished", "path", mpath, "args", args, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		return fmt.Errorf("mafft: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	aligned, err := seq.ParseFasta(&stdout)
	if err != nil {
		return fmt.Errorf("parse mafft output: %w", err)
	}
	ranks, sequences, err := a.alignedRows(aligned)
	if err != nil {
		return err
	}
	if err := a.UpdateRecordsFromAlignment(ranks, sequences); err != nil {
		return err
	}

	// The records are committed; a missing or unusable tree only leaves the
	// view without one.
	newick, err := os.ReadFile(input + ".tree")
	if err != nil {
		a.logger.Warn("mafft tree not read", "err", err)
		return nil
	}
	if err := a.installMafftTree(string(newick)); err != nil {
		a.logger.Warn("mafft tree not installed", "view", a.current, "err", err)
	}
	return nil
}

func (a *App) alignedRows(aligned []seq.Entry) ([]Rank, []string, error) {
	if len(aligned) != len(a.rowIDs) {
		return nil, nil, formatErr("mafft returned %d sequences for %d rows", len(aligned), len(a.rowIDs))
	}
	ranks := make([]Rank, len(aligned))
	sequences := make([]string, len(aligned))
	for i, e := range aligned {
		n, err := strconv.Atoi(strings.TrimSpace(e.Header))
		if err != nil || n < 1 || n > len(a.rowIDs) {
			return nil, nil, formatErr("unexpected mafft header %q", e.Header)
		}
		ranks[i] = Rank(n - 1)
		sequences[i] = e.Sequence
	}
	return ranks, sequences, nil
}

// installMafftTree renames leaves of the form "<n>_<name>" to the header of
// row n and makes the result the view's tree.
func (a *App) installMafftTree(newick string) error {
	root, err := tree.ParseNewick(newick)
	if err != nil {
		return &FormatError{Msg: "mafft tree", Err: err}
	}
	headers := a.alignment.Headers
	tree.RenameLeaves(root, func(name string) (string, bool) {
		num, _, _ := strings.Cut(name, "_")
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 || n > len(headers) {
			return "", false
		}
		return headers[n-1], true
	})
	return a.SetTreeForCurrentView(root, tree.Format(root))
}

// WriteAlignmentFasta writes the rows of the active view in screen order.
func (a *App) WriteAlignmentFasta(path string) error {
	entries := make([]seq.Entry, 0, len(a.rowIDs))
	for _, r := range a.ordering {
		entries = append(entries, seq.Entry{Header: a.alignment.Headers[r], Sequence: a.alignment.Sequences[r]})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := seq.WriteFasta(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Info is the one-line summary printed by --info.
func (a *App) Info() string {
	return fmt.Sprintf("name: %s\nnb_sequences: %d\nnb_columns: %d", a.filename, a.NumSeq(), a.AlnLen())
}
