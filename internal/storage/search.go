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
	"fmt"
	"strings"
)

// SearchQuery describes a library search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// When Text is empty all labels are listed. Limit/Offset implement pagination.
type SearchQuery struct {
	Text   string
	Limit  int
	Offset int
}

// SearchResult is one matching label. Snippet marks matches with [ ].
type SearchResult struct {
	SceneID string `json:"scene_id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// Search finds scenes whose name or text labels match q.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT l.scene_id, sc.name, snippet(fts_labels, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_labels JOIN labels l ON fts_labels.rowid = l.id JOIN scenes sc ON sc.id = l.scene_id\n")
		sb.WriteString("WHERE fts_labels MATCH ?\n")
		sb.WriteString("ORDER BY rank, l.id\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT l.scene_id, sc.name, l.text\n")
		sb.WriteString("FROM labels l JOIN scenes sc ON sc.id = l.scene_id\n")
		sb.WriteString("ORDER BY sc.updated_at DESC, l.id\n")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.SceneID, &r.Name, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}
