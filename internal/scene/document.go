/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene stores drawing trees as JSON documents and tracks their
// change history.
package scene

import (
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
)

// IDPrefix is the typeid prefix of scene identifiers.
const IDPrefix = "scene"

// Default canvas size for new documents.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Document is a named drawing tree with a canvas size.
type Document struct {
	ID         string
	Name       string
	Width      float64
	Height     float64
	Background string
	Root       *drawing.Group
}

// New creates an empty document with a fresh ID.
func New(name string, width, height float64) *Document {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Document{
		ID:     NewID(),
		Name:   name,
		Width:  width,
		Height: height,
		Root:   drawing.NewGroup(),
	}
}

// NewID returns a new scene identifier such as "scene_01h455vb4pex5vsknk084sn02q".
func NewID() string {
	return typeid.MustGenerate(IDPrefix).String()
}

// ValidateID checks that id is a well-formed scene identifier.
func ValidateID(id string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid scene id %q: %w", id, err)
	}
	if parsed.Prefix() != IDPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", IDPrefix, parsed.Prefix(), id)
	}
	return nil
}

// Canvas returns the document area.
func (d *Document) Canvas() geometry.Rect {
	return geometry.NewRect(0, 0, d.Width, d.Height)
}

// Bounds returns the bounding rectangle of the drawing.
func (d *Document) Bounds() (geometry.Rect, bool) {
	if d.Root == nil {
		return geometry.Rect{}, false
	}
	return d.Root.BoundingRect()
}

// Labels returns the document name followed by the content of every text
// element, skipping blank ones. Stores index these for search.
func (d *Document) Labels() []string {
	var out []string
	if n := strings.TrimSpace(d.Name); n != "" {
		out = append(out, n)
	}
	if d.Root == nil {
		return out
	}
	d.Root.Traverse(func(e drawing.Element) {
		if t, ok := e.(*drawing.Text); ok && strings.TrimSpace(t.Content()) != "" {
			out = append(out, t.Content())
		}
	})
	return out
}
