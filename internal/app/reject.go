package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"msafara/internal/seq"
)

type RejectKind int

const (
	WrittenToFile RejectKind = iota
	RemovedFromView
	AlreadyRejected
)

func (k RejectKind) String() string {
	switch k {
	case RemovedFromView:
		return "removed-from-view"
	case AlreadyRejected:
		return "already-rejected"
	default:
		return "written-to-file"
	}
}

type RejectResult struct {
	Count   int
	Kind    RejectKind
	Headers []string
}

// RejectSequences rejects the rows at ranks. In a custom view the rows are
// only removed from that view. In the original and filtered views the newly
// rejected records are appended to path as FASTA before they are marked
// rejected; a failed write leaves path as it was.
func (a *App) RejectSequences(ranks []Rank, path string) (RejectResult, error) {
	switch a.current {
	case RejectedView:
		return RejectResult{Kind: AlreadyRejected}, nil
	case OriginalView, FilteredView:
	default:
		n := a.RemoveSequences(ranks)
		return RejectResult{Count: n, Kind: RemovedFromView}, nil
	}

	ranks = a.validRanks(ranks)
	var fresh []Rank
	var entries []seq.Entry
	for _, r := range ranks {
		id := a.rowIDs[r]
		if a.rejected[id] {
			continue
		}
		fresh = append(fresh, r)
		rec := a.records[id]
		entries = append(entries, seq.Entry{Header: rec.Header, Sequence: rec.Sequence})
	}
	if len(fresh) == 0 {
		return RejectResult{Kind: AlreadyRejected}, nil
	}
	if err := appendFastaWithBackup(path, entries); err != nil {
		return RejectResult{}, fmt.Errorf("write rejected sequences to %s: %w", path, err)
	}
	headers := make([]string, len(entries))
	for i, e := range entries {
		headers[i] = e.Header
	}
	for _, r := range fresh {
		a.rejected[a.rowIDs[r]] = true
	}
	a.rebuildDerivedViews()
	if a.current == FilteredView {
		a.removeRows(fresh)
	}
	a.logger.Info("rejected sequences", "count", len(fresh), "path", path)
	return RejectResult{Count: len(fresh), Kind: WrittenToFile, Headers: headers}, nil
}

// appendFastaWithBackup appends entries to path. The previous content is
// restored, or a new partial file removed, when the write fails.
func appendFastaWithBackup(path string, entries []seq.Entry) (err error) {
	backup, existed, err := backupFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if backup != "" {
			os.Remove(backup)
		}
	}()
	defer func() {
		if err == nil {
			return
		}
		if existed {
			if rerr := copyFile(backup, path); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restore %s: %w", path, rerr))
			}
		} else {
			os.Remove(path)
		}
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := seq.WriteFasta(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func backupFile(path string) (string, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	tmp, err := os.CreateTemp("", "msafara-reject-*.bak")
	if err != nil {
		return "", false, err
	}
	name := tmp.Name()
	tmp.Close()
	if err := copyFile(path, name); err != nil {
		os.Remove(name)
		return "", false, err
	}
	return name, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
