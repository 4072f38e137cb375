// Package store persists rulesets and their metadata in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/opsched/core/schedule"
)

// ErrNotFound is returned when no ruleset has the requested name.
var ErrNotFound = errors.New("ruleset not found")

const schema = `CREATE TABLE IF NOT EXISTS rulesets (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        body TEXT NOT NULL,
        updated INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS ruleset_metadata (
        ruleset_id TEXT NOT NULL REFERENCES rulesets(id) ON DELETE CASCADE,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        PRIMARY KEY(ruleset_id, key)
    );`

// Entry describes a stored ruleset.
type Entry struct {
	ID      string
	Name    string
	Updated time.Time
}

// SQLiteStore persists rulesets in a SQLite database. The ruleset body is
// stored as its JSON document; metadata lives in its own table so it can be
// queried.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases and pragmas consistent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces the ruleset stored under rs.Name and returns its
// id. The id of an existing entry is kept.
func (s *SQLiteStore) Save(ctx context.Context, rs *schedule.Ruleset) (string, error) {
	doc := rs.Document()
	meta := doc.Metadata
	doc.Metadata = nil
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", rs.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM rulesets WHERE name = ?`, rs.Name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
	case err != nil:
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO rulesets (id, name, body, updated)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            body = excluded.body,
            updated = excluded.updated`,
		id, rs.Name, string(body), time.Now().UTC().UnixNano()); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ruleset_metadata WHERE ruleset_id = ?`, id); err != nil {
		return "", err
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ruleset_metadata (ruleset_id, key, value) VALUES (?, ?, ?)`,
			id, k, v); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Load returns the ruleset stored under name, metadata included.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*schedule.Ruleset, error) {
	var id, body string
	err := s.db.QueryRowContext(ctx, `SELECT id, body FROM rulesets WHERE name = ?`, name).Scan(&id, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var doc schedule.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	rs, err := doc.Ruleset()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM ruleset_metadata WHERE ruleset_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		rs.SetMeta(k, v)
	}
	return rs, rows.Err()
}

// List returns the stored rulesets ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated FROM rulesets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Name, &ts); err != nil {
			return nil, err
		}
		e.Updated = time.Unix(0, ts).UTC()
		res = append(res, e)
	}
	return res, rows.Err()
}

// FindByMeta returns the names of rulesets whose metadata key equals value.
func (s *SQLiteStore) FindByMeta(ctx context.Context, key, value string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.name FROM rulesets r
        JOIN ruleset_metadata m ON m.ruleset_id = r.id
        WHERE m.key = ? AND m.value = ? ORDER BY r.name`, key, value)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete removes the ruleset stored under name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rulesets WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
