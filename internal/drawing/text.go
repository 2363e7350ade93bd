/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"chartdraw/internal/geometry"
	"chartdraw/internal/textlayout"
)

// FontProvider resolves fonts for text measurement. Exporters that register
// OpenType faces replace it before rendering.
var FontProvider textlayout.Provider = textlayout.BasicProvider{}

// Text is a label anchored at its top-left origin.
type Text struct {
	element
	content string
	origin  *geometry.Point
}

// NewText creates a label. content is stored verbatim.
func NewText(content string, opts ...Option) *Text {
	t := &Text{element: newElement(opts), content: content, origin: geometry.NewPoint(0, 0)}
	t.origin.SetObserver(t)
	return t
}

func (t *Text) Content() string { return t.content }

// SetContent replaces the label text. Content is a presentation attribute
// and is reported as an options change.
func (t *Text) SetContent(s string) *Text {
	t.content = s
	t.optionsChange()
	return t
}

func (t *Text) Origin() *geometry.Point { return t.origin }

// SetOrigin replaces the origin point and starts observing it.
func (t *Text) SetOrigin(p *geometry.Point) *Text {
	if t.origin.Observer() == geometry.Observer(t) {
		t.origin.SetObserver(nil)
	}
	t.origin = p
	p.SetObserver(t)
	t.geometryChange()
	return t
}

func (t *Text) Fill(color string, opacity float64) *Text {
	t.setFill(color, opacity)
	return t
}

func (t *Text) Stroke(color string, width, opacity float64) *Text {
	t.setStroke(color, width, opacity)
	return t
}

// SetFont sets the font shorthand, e.g. "bold 14px Arial".
func (t *Text) SetFont(font string) *Text {
	t.options.Font = font
	t.optionsChange()
	return t
}

// Font returns the parsed font option.
func (t *Text) Font() textlayout.FontSpec { return textlayout.ParseFont(t.options.Font) }

// GeometryChange is called by the origin point.
func (t *Text) GeometryChange() { t.geometryChange() }

// Layout measures the content with FontProvider, wrapping at the MaxWidth option.
func (t *Text) Layout() textlayout.Box {
	return textlayout.Layout(FontProvider, t.Font(), t.content, t.options.MaxWidth)
}

func (t *Text) BoundingRect() (geometry.Rect, bool) {
	box := t.Layout()
	o := t.origin.Pt()
	r := geometry.Rect{P0: o, P1: geometry.Pt{X: o.X + box.Width, Y: o.Y + box.Height}}
	return t.transformed(r), true
}
