package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gambit/internal/logging"
	"gambit/pkg/goap"
)

// DefaultDBPath is where agent histories live unless overridden.
const DefaultDBPath = ".gambit/history.db"

// schemaVersionV1 is the current snapshot-log schema.
const schemaVersionV1 = 1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS history_snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	agent      TEXT NOT NULL,
	version    INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	payload    BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_snapshots_agent
	ON history_snapshots(agent, id DESC);
`

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore keeps an append-only log of history snapshots per agent in
// SQLite, so a bad write never destroys the previous good state.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations. The parent
// directory (e.g. .gambit) is created if missing.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersionV1
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// SaveHistory appends a snapshot of the agent's history.
func (s *SqlStore) SaveHistory(agent string, h *goap.ActionHistory) error {
	if agent == "" {
		return errors.New("agent name is empty")
	}
	payload, err := EncodeJSON(h)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO history_snapshots(agent, version, created_at, checksum, payload)
		 VALUES(?, ?, ?, ?, ?)`,
		agent, SnapshotVersion, nowUTC(), h.Checksum(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the newest valid snapshot for an agent, or nil with no
// error when the agent has none.
func (s *SqlStore) LoadLatest(agent string) (*goap.ActionHistory, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM history_snapshots WHERE agent = ? ORDER BY id DESC LIMIT 1`,
		agent,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return DecodeJSON(payload)
}

// LoadOrDefault converts any load failure into an empty history, logging a
// warning for corrupt data and staying silent for a simple absence.
func (s *SqlStore) LoadOrDefault(agent string) *goap.ActionHistory {
	h, err := s.LoadLatest(agent)
	if err != nil {
		logging.New("store").Warn("stored history unusable, starting empty", "agent", agent, "err", err)
		return goap.NewActionHistory()
	}
	if h == nil {
		return goap.NewActionHistory()
	}
	return h
}

// ListAgents returns the agents with at least one snapshot, sorted by name.
func (s *SqlStore) ListAgents() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT agent FROM history_snapshots ORDER BY agent`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var agent string
		if err := rows.Scan(&agent); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, agent)
	}
	return out, rows.Err()
}

// SnapshotCount returns how many snapshots an agent has accumulated.
func (s *SqlStore) SnapshotCount(agent string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM history_snapshots WHERE agent = ?`, agent,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Prune deletes all but the newest keep snapshots per agent.
func (s *SqlStore) Prune(agent string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.Exec(
		`DELETE FROM history_snapshots
		 WHERE agent = ? AND id NOT IN (
			SELECT id FROM history_snapshots WHERE agent = ? ORDER BY id DESC LIMIT ?
		 )`,
		agent, agent, keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
