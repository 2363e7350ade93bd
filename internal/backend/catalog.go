/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend implements the shared scene catalog: a Postgres database
// that scenes are published to and fetched from, and a small HTTP API with a
// client for read access.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "chartdraw/internal/log"
	"chartdraw/internal/scene"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a scene or version is not in the catalog.
var ErrNotFound = errors.New("not found in catalog")

// Entry describes a published scene.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Version     int64     `json:"version"`
	PublishedBy string    `json:"published_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Catalog is a connection to the shared scene catalog. It is safe for
// concurrent use.
type Catalog struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenCatalog connects to the Postgres database at dsn and applies pending
// migrations.
func OpenCatalog(ctx context.Context, dsn string) (*Catalog, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "open")
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db, l); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Catalog{db: db, log: applog.WithComponent("catalog")}, nil
}

// Close releases the connection pool.
func (c *Catalog) Close() error { return c.db.Close() }

// Ping checks that the database is reachable.
func (c *Catalog) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// Publish stores doc as the latest version of its scene and returns that
// version. Publishing an unchanged document returns the current version.
func (c *Catalog) Publish(ctx context.Context, doc *scene.Document, publisher string) (int64, error) {
	if err := scene.ValidateID(doc.ID); err != nil {
		return 0, err
	}
	data, err := scene.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode scene: %w", err)
	}
	labels := strings.Join(doc.Labels(), "\n")

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		cur  int64
		same bool
	)
	// dialect=PostgreSQL
	err = tx.QueryRowContext(ctx, `SELECT version, doc = $2::jsonb FROM scenes WHERE id = $1 FOR UPDATE`, doc.ID, string(data)).Scan(&cur, &same)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cur = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO scenes(id, name, width, height, version, doc, labels, published_by)
			VALUES ($1, $2, $3, $4, 1, $5::jsonb, $6, $7)`,
			doc.ID, doc.Name, doc.Width, doc.Height, string(data), labels, publisher); err != nil {
			return 0, fmt.Errorf("insert scene: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("read scene: %w", err)
	case same:
		return cur, nil
	default:
		cur++
		if _, err := tx.ExecContext(ctx, `UPDATE scenes SET name=$2, width=$3, height=$4, version=$5, doc=$6::jsonb, labels=$7, published_by=$8, updated_at=now()
			WHERE id=$1`,
			doc.ID, doc.Name, doc.Width, doc.Height, cur, string(data), labels, publisher); err != nil {
			return 0, fmt.Errorf("update scene: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO scene_versions(scene_id, version, doc) VALUES ($1, $2, $3::jsonb)`, doc.ID, cur, string(data)); err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit publish: %w", err)
	}
	c.log.Info("scene published", slog.String("scene", doc.ID), slog.Int64("version", cur))
	return cur, nil
}

// Fetch returns the latest published version of a scene.
func (c *Catalog) Fetch(ctx context.Context, id string) (*scene.Document, Entry, error) {
	var (
		e    Entry
		data []byte
	)
	err := c.db.QueryRowContext(ctx, `SELECT id, name, width, height, version, published_by, updated_at, doc FROM scenes WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Width, &e.Height, &e.Version, &e.PublishedBy, &e.UpdatedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Entry{}, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, Entry{}, fmt.Errorf("fetch scene: %w", err)
	}
	doc, err := scene.Unmarshal(data)
	if err != nil {
		return nil, Entry{}, err
	}
	return doc, e, nil
}

// FetchVersion returns a scene as it was published at version.
func (c *Catalog) FetchVersion(ctx context.Context, id string, version int64) (*scene.Document, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT doc FROM scene_versions WHERE scene_id = $1 AND version = $2`, id, version).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scene %s version %d: %w", id, version, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch version: %w", err)
	}
	return scene.Unmarshal(data)
}

// List returns all published scenes, most recently updated first.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, width, height, version, published_by, updated_at FROM scenes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Width, &e.Height, &e.Version, &e.PublishedBy, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a scene and all its versions.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	return nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each one in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB, l *slog.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}
	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int64]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("select schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	applied := map[int64]bool{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
