/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"chartdraw/internal/drawing"
	applog "chartdraw/internal/log"
	"chartdraw/internal/undo"
)

// History observes every element of a document and records the encoded
// state before each change in an undo.Manager. Elements added later are
// picked up on the next ChildrenChange.
//
// History is not safe for concurrent use, like the tree it observes.
type History struct {
	doc       *Document
	mgr       *undo.Manager
	current   []byte
	restoring bool
	changes   int
	listeners []func()
	now       func() time.Time
	log       *slog.Logger
}

// NewHistory starts tracking doc. It takes over the observers of all
// elements in doc's tree.
func NewHistory(doc *Document, mgr *undo.Manager) (*History, error) {
	if doc.Root == nil {
		doc.Root = drawing.NewGroup()
	}
	b, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot scene %s: %w", doc.ID, err)
	}
	h := &History{
		doc:     doc,
		mgr:     mgr,
		current: b,
		now:     time.Now,
		log:     applog.WithOperation(applog.WithComponent("scene"), "history").With(slog.String("scene", doc.ID)),
	}
	h.attach()
	return h, nil
}

// Document returns the tracked document. Undo and Redo replace its Root.
func (h *History) Document() *Document { return h.doc }

// Changes reports how many notifications were recorded.
func (h *History) Changes() int { return h.changes }

// OnChange registers fn to run after every recorded change, undo or redo.
func (h *History) OnChange(fn func()) { h.listeners = append(h.listeners, fn) }

// Depth reports the available undo and redo steps.
func (h *History) Depth() (undo, redo int) { return h.mgr.Depth(h.doc.ID) }

// Undo restores the state before the last change. It reports false when
// there is nothing to undo.
func (h *History) Undo() (bool, error) {
	s, ok := h.mgr.Undo(h.doc.ID, undo.Snapshot{Blob: h.current, TS: h.now()})
	if !ok {
		return false, nil
	}
	return true, h.restore(s.Blob)
}

// Redo re-applies the last undone change.
func (h *History) Redo() (bool, error) {
	s, ok := h.mgr.Redo(h.doc.ID, undo.Snapshot{Blob: h.current, TS: h.now()})
	if !ok {
		return false, nil
	}
	return true, h.restore(s.Blob)
}

// Detach stops tracking and clears the document's undo stacks.
func (h *History) Detach() {
	h.walk(func(e drawing.Element) {
		if e.Observer() == drawing.Observer(h) {
			e.SetObserver(nil)
		}
	})
	h.mgr.ClearScene(h.doc.ID)
}

func (h *History) ChildrenChange() {
	h.attach()
	h.record()
}

func (h *History) OptionsChange()  { h.record() }
func (h *History) GeometryChange() { h.record() }

func (h *History) walk(fn func(drawing.Element)) {
	fn(h.doc.Root)
	h.doc.Root.Traverse(fn)
}

func (h *History) attach() {
	h.walk(func(e drawing.Element) { e.SetObserver(h) })
}

func (h *History) record() {
	if h.restoring {
		return
	}
	b, err := Marshal(h.doc)
	if err != nil {
		h.log.Error("snapshot failed", slog.Any("err", err))
		return
	}
	if bytes.Equal(b, h.current) {
		return
	}
	h.mgr.PushSnapshot(undo.Snapshot{Scene: h.doc.ID, Blob: h.current, TS: h.now()})
	h.current = b
	h.changes++
	h.notify()
}

func (h *History) restore(blob []byte) error {
	doc, err := Unmarshal(blob)
	if err != nil {
		return fmt.Errorf("restore scene %s: %w", h.doc.ID, err)
	}
	h.restoring = true
	defer func() { h.restoring = false }()

	h.walk(func(e drawing.Element) { e.SetObserver(nil) })
	h.doc.Name = doc.Name
	h.doc.Width = doc.Width
	h.doc.Height = doc.Height
	h.doc.Background = doc.Background
	h.doc.Root = doc.Root
	h.attach()
	h.current = blob
	h.log.Debug("scene restored", slog.Int("bytes", len(blob)))
	h.notify()
	return nil
}

func (h *History) notify() {
	for _, fn := range h.listeners {
		fn()
	}
}
