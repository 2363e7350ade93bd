/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chartdraw/internal/scene"
)

// ErrNotFound is returned when a scene or revision does not exist.
var ErrNotFound = errors.New("not found")

// SceneInfo summarizes a stored scene.
type SceneInfo struct {
	ID        string
	Name      string
	Width     float64
	Height    float64
	Revision  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision describes one stored revision of a scene.
type Revision struct {
	Rev  int
	TS   time.Time
	Size int
}

// language=SQL
// dialect=SQLite
const latestRevisionSQL = `SELECT rev, doc FROM revisions WHERE scene_id = ? ORDER BY rev DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const upsertSceneSQL = `INSERT INTO scenes(id, name, width, height, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, width=excluded.width, height=excluded.height, doc=excluded.doc, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(scene_id, rev, ts, doc) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listScenesSQL = `SELECT s.id, s.name, s.width, s.height, s.created_at, s.updated_at, COALESCE(MAX(r.rev), 0)
	FROM scenes s LEFT JOIN revisions r ON r.scene_id = s.id
	GROUP BY s.id ORDER BY s.updated_at DESC, s.id`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT rev, ts, length(doc) FROM revisions WHERE scene_id = ? ORDER BY rev DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE scene_id = ? AND id NOT IN (
	SELECT id FROM revisions WHERE scene_id = ? ORDER BY rev DESC LIMIT ?
)`

// SaveScene stores doc as the current state of its scene and records a new
// revision. Saving an unchanged document returns the latest revision number
// without adding one.
func (s *Store) SaveScene(ctx context.Context, doc *scene.Document) (int, error) {
	if err := scene.ValidateID(doc.ID); err != nil {
		return 0, err
	}
	data, err := scene.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode scene: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int
	var lastDoc []byte
	err = tx.QueryRowContext(ctx, latestRevisionSQL, doc.ID).Scan(&last, &lastDoc)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read latest revision: %w", err)
	}
	if last > 0 && bytes.Equal(lastDoc, data) {
		return last, nil
	}

	now := time.Now().UTC().Format(tsLayout)
	if _, err := tx.ExecContext(ctx, upsertSceneSQL, doc.ID, doc.Name, doc.Width, doc.Height, data, now, now); err != nil {
		return 0, fmt.Errorf("upsert scene: %w", err)
	}
	rev := last + 1
	if _, err := tx.ExecContext(ctx, insertRevisionSQL, doc.ID, rev, now, data); err != nil {
		return 0, fmt.Errorf("insert revision: %w", err)
	}
	if err := replaceLabels(ctx, tx, doc); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	s.log.Debug("scene saved", slog.String("scene", doc.ID), slog.Int("rev", rev), slog.Int("bytes", len(data)))
	return rev, nil
}

func replaceLabels(ctx context.Context, tx *sql.Tx, doc *scene.Document) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE scene_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}
	for _, text := range doc.Labels() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO labels(scene_id, text) VALUES (?, ?)`, doc.ID, text); err != nil {
			return fmt.Errorf("insert label: %w", err)
		}
	}
	return nil
}

// LoadScene returns the current state of a scene.
func (s *Store) LoadScene(ctx context.Context, id string) (*scene.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM scenes WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", id, err)
	}
	return scene.Unmarshal(data)
}

// LoadRevision returns a scene as it was stored at rev.
func (s *Store) LoadRevision(ctx context.Context, id string, rev int) (*scene.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM revisions WHERE scene_id = ? AND rev = ?`, id, rev).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scene %s revision %d: %w", id, rev, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load revision: %w", err)
	}
	return scene.Unmarshal(data)
}

// ListScenes returns all stored scenes, most recently updated first.
func (s *Store) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	rows, err := s.db.QueryContext(ctx, listScenesSQL)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []SceneInfo
	for rows.Next() {
		var si SceneInfo
		var created, updated string
		if err := rows.Scan(&si.ID, &si.Name, &si.Width, &si.Height, &created, &updated, &si.Revision); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		si.CreatedAt, _ = time.Parse(tsLayout, created)
		si.UpdatedAt, _ = time.Parse(tsLayout, updated)
		out = append(out, si)
	}
	return out, rows.Err()
}

// Revisions returns up to limit most recent revisions of a scene.
func (s *Store) Revisions(ctx context.Context, id string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listRevisionsSQL, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var ts string
		if err := rows.Scan(&r.Rev, &ts, &r.Size); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.TS, _ = time.Parse(tsLayout, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneRevisions keeps at most keepLast revisions of a scene and deletes older ones.
func (s *Store) PruneRevisions(ctx context.Context, id string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneRevisionsSQL, id, id, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteScene removes a scene with its revisions, labels and previews.
func (s *Store) DeleteScene(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	s.log.Info("scene deleted", slog.String("scene", id))
	return nil
}
