package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SessionEntry is one save or load of a session file.
type SessionEntry struct {
	ID          int
	Path        string
	Source      string
	Action      string
	Records     int
	Views       int
	CurrentView string
	At          time.Time
}

// Rejection is one record appended to a reject file.
type Rejection struct {
	ID         int
	Source     string
	Header     string
	OutputPath string
	At         time.Time
}

const (
	ActionSave = "save"
	ActionLoad = "load"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	records INTEGER NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	current_view TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rejections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL DEFAULT '',
	header TEXT NOT NULL,
	output_path TEXT NOT NULL,
	created_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) RecordSession(e SessionEntry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	path := e.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	_, err := s.db.Exec(`INSERT INTO sessions (path, source, action, records, views, current_view, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);`,
		path, e.Source, e.Action, e.Records, e.Views, e.CurrentView, at.UTC().Format(time.RFC3339Nano))
	return err
}

// RecentSessions returns the latest entry per session path, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT id, path, source, action, records, views, current_view, created_at
FROM sessions
WHERE id IN (SELECT MAX(id) FROM sessions GROUP BY path)
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionEntry
	for rows.Next() {
		var e SessionEntry
		var createdStr string
		if err := rows.Scan(&e.ID, &e.Path, &e.Source, &e.Action, &e.Records, &e.Views, &e.CurrentView, &createdStr); err != nil {
			return nil, err
		}
		if created, err := time.Parse(time.RFC3339Nano, createdStr); err == nil {
			e.At = created
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordRejections logs headers appended to outputPath in one transaction.
func (s *Store) RecordRejections(source, outputPath string, headers []string) error {
	if len(headers) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, h := range headers {
		if _, err := tx.Exec(`INSERT INTO rejections (source, header, output_path, created_at) VALUES (?, ?, ?, ?);`,
			source, h, outputPath, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Rejections lists rejections of source in the order they were recorded.
func (s *Store) Rejections(source string) ([]Rejection, error) {
	rows, err := s.db.Query(`SELECT id, source, header, output_path, created_at FROM rejections WHERE source = ? ORDER BY id;`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var r Rejection
		var createdStr string
		if err := rows.Scan(&r.ID, &r.Source, &r.Header, &r.OutputPath, &createdStr); err != nil {
			return nil, err
		}
		if created, err := time.Parse(time.RFC3339Nano, createdStr); err == nil {
			r.At = created
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
