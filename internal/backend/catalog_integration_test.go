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
	"errors"
	"os"
	"testing"
	"time"

	"chartdraw/internal/drawing"
	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
)

// EnvTestDSN points the catalog tests at a disposable Postgres database.
const EnvTestDSN = "CHARTDRAW_PG_DSN"

func openCatalogForTest(t *testing.T) *Catalog {
	t.Helper()
	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvTestDSN)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := OpenCatalog(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalogPublishFetch(t *testing.T) {
	c := openCatalogForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc := scene.New("Uptime", 640, 480)
	doc.Root.Append(drawing.NewText("Availability 99.9%"))
	t.Cleanup(func() { _ = c.Delete(context.Background(), doc.ID) })

	v, err := c.Publish(ctx, doc, "tester")
	if err != nil || v != 1 {
		t.Fatalf("Publish: %d %v", v, err)
	}
	if v, _ := c.Publish(ctx, doc, "tester"); v != 1 {
		t.Fatalf("unchanged publish bumped version to %d", v)
	}
	doc.Height = 500
	if v, err = c.Publish(ctx, doc, "tester"); err != nil || v != 2 {
		t.Fatalf("second Publish: %d %v", v, err)
	}

	got, e, err := c.Fetch(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if e.Version != 2 || got.Height != 500 || e.PublishedBy != "tester" {
		t.Fatalf("unexpected fetch %+v %+v", e, got)
	}
	old, err := c.FetchVersion(ctx, doc.ID, 1)
	if err != nil || old.Height != 480 {
		t.Fatalf("FetchVersion: %+v %v", old, err)
	}
	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, le := range list {
		found = found || le.ID == doc.ID
	}
	if !found {
		t.Fatalf("published scene missing from list")
	}

	if err := c.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := c.Fetch(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// The catalog and the local store should find the same scenes for plain
// word queries.
func TestSearchParityWithLocalStore(t *testing.T) {
	c := openCatalogForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer st.Close()

	marker := "zq" + time.Now().Format("150405")
	a := scene.New("Parity "+marker, 100, 100)
	a.Root.Append(drawing.NewText("sunrise over the harbour"))
	b := scene.New("Other", 100, 100)
	b.Root.Append(drawing.NewText("sunset " + marker))
	for _, d := range []*scene.Document{a, b} {
		id := d.ID
		t.Cleanup(func() { _ = c.Delete(context.Background(), id) })
		if _, err := c.Publish(ctx, d, "tester"); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if _, err := st.SaveScene(ctx, d); err != nil {
			t.Fatalf("SaveScene: %v", err)
		}
	}

	for _, q := range []string{marker, "sunrise"} {
		pres, err := c.Search(ctx, storage.SearchQuery{Text: q})
		if err != nil {
			t.Fatalf("catalog search %q: %v", q, err)
		}
		sres, err := st.Search(ctx, storage.SearchQuery{Text: q})
		if err != nil {
			t.Fatalf("store search %q: %v", q, err)
		}
		pset, sset := sceneSet(pres), sceneSet(sres)
		for id := range sset {
			if !pset[id] {
				t.Fatalf("query %q: scene %s found locally but not in catalog", q, id)
			}
		}
		if q == marker && (!pset[a.ID] || !pset[b.ID]) {
			t.Fatalf("query %q: expected both scenes, got %v", q, pset)
		}
	}
}

func sceneSet(list []storage.SearchResult) map[string]bool {
	m := map[string]bool{}
	for _, r := range list {
		m[r.SceneID] = true
	}
	return m
}
