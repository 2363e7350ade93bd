/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "chartdraw/internal/log"
	"chartdraw/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DBFileName is the library database inside the storage directory.
	DBFileName = "chartdraw.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// tsLayout keeps timestamps fixed width so that they sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is an open scene library. It is safe for concurrent use; the
// underlying pool holds a single connection.
type Store struct {
	db         *sql.DB
	path       string
	previewCap int64
	log        *slog.Logger
}

// DBPath returns the full path to the library database in dir.
func DBPath(dir string) string {
	return filepath.Join(dir, DBFileName)
}

// Open ensures that the library database exists in dir, enables WAL mode and
// brings the schema up to date.
func Open(dir string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create storage dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	path := DBPath(dir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("library ready", slog.String("path", path))
	return &Store{db: db, path: path, previewCap: MaxPreviewsBytesFromEnv(), log: applog.WithComponent("storage")}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// SetPreviewCap overrides the preview cache size; 0 disables eviction.
func (s *Store) SetPreviewCap(n int64) { s.previewCap = n }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at 1 and migrate forward like existing ones
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the version 1 tables and FTS structures if they do not exist.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS scenes (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT '',
			width       REAL NOT NULL,
			height      REAL NOT NULL,
			doc         BLOB NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS revisions (
			id        INTEGER PRIMARY KEY,
			scene_id  TEXT    NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
			rev       INTEGER NOT NULL,
			ts        TEXT    NOT NULL,
			doc       BLOB    NOT NULL,
			UNIQUE(scene_id, rev)
		);`,
		// Searchable text of a scene: its name and every text label.
		`CREATE TABLE IF NOT EXISTS labels (
			id        INTEGER PRIMARY KEY,
			scene_id  TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
			text      TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_labels_scene ON labels(scene_id);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_labels USING fts5(
			text,
			content='labels',
			content_rowid='id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS labels_ai AFTER INSERT ON labels BEGIN
			INSERT INTO fts_labels(rowid, text) VALUES (new.id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS labels_ad AFTER DELETE ON labels BEGIN
			INSERT INTO fts_labels(fts_labels, rowid, text) VALUES ('delete', old.id, old.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Render cache for previews and exports
			stmts = []string{
				`CREATE TABLE IF NOT EXISTS previews (
					id           INTEGER PRIMARY KEY,
					scene_id     TEXT    NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
					rev          INTEGER NOT NULL,
					kind         TEXT    NOT NULL,
					scale        REAL    NOT NULL DEFAULT 1,
					blob         BLOB    NOT NULL,
					size         INTEGER NOT NULL DEFAULT 0,
					updated_at   TEXT    NOT NULL,
					last_access  TEXT
				);`,
				`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(scene_id, rev, kind, scale);`,
				`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
