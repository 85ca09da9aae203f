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

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS world_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	world_json    TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	note          TEXT,
	event_count   INTEGER NOT NULL,
	edge_count    INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES world_versions(version_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT,
	event_id      TEXT,
	trigger_type  TEXT NOT NULL,
	input_text    TEXT,
	delta_json    TEXT,
	record_json   TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES world_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_world (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES world_versions(version_id)
);
`

// #endregion schema

// #region store-struct
// SQLiteStore keeps every world snapshot in SQLite with an active pointer.
type SQLiteStore struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// OpenSQLite opens a SQLite database and runs migrations.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the provenance log.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region load
// Load reads the active world. It returns ErrNotFound before the first Save.
func (s *SQLiteStore) Load(ctx context.Context) (world.World, error) {
	id, err := s.ActiveVersion(ctx)
	if err != nil {
		return world.World{}, err
	}
	w, _, err := s.Version(ctx, id)
	return w, err
}

// ActiveVersion returns the id of the active snapshot.
func (s *SQLiteStore) ActiveVersion(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT version_id FROM active_world WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get active: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return id, nil
}

// #endregion load

// #region save
// Save inserts a new snapshot whose parent is the current active version
// and moves the active pointer to it atomically.
func (s *SQLiteStore) Save(ctx context.Context, w world.World, meta Meta) (string, error) {
	body, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshal world: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT version_id FROM active_world WHERE id = 1`).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get active: %w", err)
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO world_versions (version_id, parent_id, world_json, trigger_type, note, event_count, edge_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, parent, string(body), meta.Trigger, nullIfEmpty(meta.Note),
		len(w.Nodes), len(w.Edges), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_world (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// #endregion save

// #region get-version
// Version retrieves a specific snapshot by id.
func (s *SQLiteStore) Version(ctx context.Context, id string) (world.World, Version, error) {
	var body string
	row := s.db.QueryRowContext(ctx,
		`SELECT v.version_id, v.parent_id, v.trigger_type, v.note, v.event_count, v.edge_count, v.created_at,
		        COALESCE(a.version_id = v.version_id, 0), v.world_json
		 FROM world_versions v LEFT JOIN active_world a ON a.id = 1
		 WHERE v.version_id = ?`, id,
	)
	v, err := scanVersion(row, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return world.World{}, Version{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return world.World{}, Version{}, fmt.Errorf("get version %s: %w", id, err)
	}

	var w world.World
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return world.World{}, Version{}, fmt.Errorf("unmarshal world %s: %w", id, err)
	}
	if w.Nodes == nil {
		w.Nodes = map[string]world.Event{}
	}
	return w, v, nil
}

// #endregion get-version

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *SQLiteStore) Rollback(ctx context.Context, targetVersionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM world_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s: %w", targetVersionID, ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO active_world (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// Versions returns the most recent snapshots, newest first.
func (s *SQLiteStore) Versions(ctx context.Context, limit int) ([]Version, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT v.version_id, v.parent_id, v.trigger_type, v.note, v.event_count, v.edge_count, v.created_at,
		        COALESCE(a.version_id = v.version_id, 0)
		 FROM world_versions v LEFT JOIN active_world a ON a.id = 1
		 ORDER BY v.created_at DESC, v.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// #endregion list-versions

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner, extra ...any) (Version, error) {
	var v Version
	var parentID, note sql.NullString
	var createdStr string
	var active bool
	dest := append([]any{&v.VersionID, &parentID, &v.Trigger, &note, &v.Events, &v.Edges, &createdStr, &active}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Version{}, err
	}
	v.ParentID = parentID.String
	v.Note = note.String
	v.Active = active
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return v, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
