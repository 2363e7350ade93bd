/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the scene viewer. Session holds the toolkit independent
// state; the Fyne window is only compiled with -tags fyne.
package ui

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"chartdraw/internal/export"
	applog "chartdraw/internal/log"
	"chartdraw/internal/scene"
	"chartdraw/internal/undo"
)

// Zoom limits of the viewer.
const (
	MinZoom  = 0.1
	MaxZoom  = 8.0
	zoomStep = 1.25
)

// Session is one scene file opened in the viewer. Edits made through the
// document tree are tracked for undo; OnChange listeners run after every
// recorded change, undo, redo and zoom change.
type Session struct {
	path      string
	hist      *scene.History
	zoom      float64
	dirty     bool
	listeners []func()
	log       *slog.Logger
}

// OpenSession loads the scene at path and starts tracking it.
func OpenSession(path string, cfg undo.Config) (*Session, error) {
	doc, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	return NewSession(path, doc, cfg)
}

// NewSession tracks doc, which is saved back to path.
func NewSession(path string, doc *scene.Document, cfg undo.Config) (*Session, error) {
	h, err := scene.NewHistory(doc, undo.NewManager(cfg))
	if err != nil {
		return nil, err
	}
	s := &Session{
		path: path,
		hist: h,
		zoom: 1,
		log:  applog.WithComponent("ui").With(slog.String("scene", doc.ID)),
	}
	h.OnChange(func() {
		s.dirty = true
		s.notify()
	})
	return s, nil
}

// Document returns the tracked scene.
func (s *Session) Document() *scene.Document { return s.hist.Document() }

// Path returns the file the session saves to.
func (s *Session) Path() string { return s.path }

// Dirty reports whether there are unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 { return s.zoom }

// OnChange registers fn to run whenever the rendered view may change.
func (s *Session) OnChange(fn func()) { s.listeners = append(s.listeners, fn) }

// SetZoom clamps z to [MinZoom, MaxZoom].
func (s *Session) SetZoom(z float64) {
	z = math.Max(MinZoom, math.Min(MaxZoom, z))
	if z == s.zoom {
		return
	}
	s.zoom = z
	s.notify()
}

func (s *Session) ZoomIn()  { s.SetZoom(s.zoom * zoomStep) }
func (s *Session) ZoomOut() { s.SetZoom(s.zoom / zoomStep) }

// ZoomToFit picks the zoom at which the canvas fits into w x h.
func (s *Session) ZoomToFit(w, h float64) {
	doc := s.Document()
	if w <= 0 || h <= 0 || doc.Width <= 0 || doc.Height <= 0 {
		return
	}
	s.SetZoom(math.Min(w/doc.Width, h/doc.Height))
}

// Undo reverts the last change.
func (s *Session) Undo() (bool, error) { return s.hist.Undo() }

// Redo re-applies the last undone change.
func (s *Session) Redo() (bool, error) { return s.hist.Redo() }

// Render rasterizes the scene at the current zoom.
func (s *Session) Render() (*image.RGBA, error) {
	return export.Rasterize(s.Document(), export.PNGOptions{Scale: s.zoom})
}

// Save writes the scene back to its file.
func (s *Session) Save() error {
	if err := scene.Save(s.path, s.Document()); err != nil {
		return err
	}
	s.dirty = false
	s.log.Info("scene saved", slog.String("path", s.path))
	return nil
}

// Export writes the scene to path in the format given by its extension.
func (s *Session) Export(path string) error {
	return export.ExportFile(path, s.Document(), export.Options{})
}

// Status is the line shown at the bottom of the viewer.
func (s *Session) Status() string {
	doc := s.Document()
	undoN, redoN := s.hist.Depth()
	mark := ""
	if s.dirty {
		mark = " *"
	}
	return fmt.Sprintf("%s%s  %.0fx%.0f  zoom %d%%  undo %d  redo %d", doc.Name, mark, doc.Width, doc.Height, int(math.Round(s.zoom*100)), undoN, redoN)
}

// Close stops change tracking.
func (s *Session) Close() { s.hist.Detach() }

func (s *Session) notify() {
	for _, fn := range s.listeners {
		fn()
	}
}
