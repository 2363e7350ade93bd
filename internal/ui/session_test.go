/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chartdraw/internal/drawing"
	"chartdraw/internal/scene"
	"chartdraw/internal/undo"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	doc := scene.New("Viewer", 200, 100)
	doc.Root.Append(drawing.NewShape().Fill("red", 1))
	path := filepath.Join(t.TempDir(), "viewer.json")
	if err := scene.Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := OpenSession(path, undo.Config{})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSessionZoom(t *testing.T) {
	s := newTestSession(t)
	changes := 0
	s.OnChange(func() { changes++ })

	s.ZoomIn()
	if s.Zoom() != 1.25 || changes != 1 {
		t.Fatalf("zoom=%v changes=%d", s.Zoom(), changes)
	}
	s.SetZoom(100)
	if s.Zoom() != MaxZoom {
		t.Fatalf("zoom not clamped: %v", s.Zoom())
	}
	s.ZoomToFit(100, 100)
	if s.Zoom() != 0.5 {
		t.Fatalf("fit zoom = %v", s.Zoom())
	}
	img, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("render size %v", b)
	}
}

func TestSessionTracksEdits(t *testing.T) {
	s := newTestSession(t)
	changes := 0
	s.OnChange(func() { changes++ })

	s.Document().Root.Append(drawing.NewText("added"))
	if !s.Dirty() || changes != 1 {
		t.Fatalf("edit not tracked: dirty=%v changes=%d", s.Dirty(), changes)
	}
	if !strings.Contains(s.Status(), "undo 1") || !strings.Contains(s.Status(), "Viewer *") {
		t.Fatalf("status = %q", s.Status())
	}
	if ok, err := s.Undo(); !ok || err != nil {
		t.Fatalf("Undo: %v %v", ok, err)
	}
	if n := len(s.Document().Root.Children()); n != 1 {
		t.Fatalf("undo left %d children", n)
	}
	if ok, _ := s.Redo(); !ok || len(s.Document().Root.Children()) != 2 {
		t.Fatalf("redo did not restore the text")
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("still dirty after save")
	}
	back, err := scene.Load(s.Path())
	if err != nil || len(back.Root.Children()) != 2 {
		t.Fatalf("saved file: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.svg")
	if err := s.Export(out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("export missing: %v", err)
	}
}
