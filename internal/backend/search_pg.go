/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"fmt"
	"strings"

	"chartdraw/internal/storage"
)

// Search runs q against the catalog's text search index. Results use the
// local store's types so that both can back the same search command; the
// snippet marks matches with [ ] like the local index does.
func (c *Catalog) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		p := place(text)
		b.WriteString("SELECT s.id, s.name, ")
		b.WriteString("COALESCE(ts_headline('simple', s.name || ' ' || s.labels, plainto_tsquery('simple', " + p + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM scenes s WHERE s.search_vector @@ plainto_tsquery('simple', " + p + ") ")
		b.WriteString("ORDER BY ts_rank(s.search_vector, plainto_tsquery('simple', " + p + ")) DESC, s.id ")
	} else {
		b.WriteString("SELECT s.id, s.name, s.name FROM scenes s ORDER BY s.updated_at DESC, s.id ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString("LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.SceneID, &r.Name, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
