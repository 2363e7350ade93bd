/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drawing is a retained-mode scene graph for chart rendering.
// Elements hold a single observer back-reference and report every mutation
// to it synchronously. Containers register themselves as observers of the
// parts they own and re-emit the events upward.
package drawing

import "chartdraw/internal/geometry"

// Element is a node of the scene graph.
type Element interface {
	Observer() Observer
	SetObserver(Observer)
	Options() *Options
	// BoundingRect returns the element's extent in its parent's coordinates.
	// ok is false when the element has nothing to measure.
	BoundingRect() (r geometry.Rect, ok bool)
}

type element struct {
	observer Observer
	options  Options
}

func newElement(opts []Option) element {
	e := element{options: defaultOptions()}
	for _, o := range opts {
		o(&e.options)
	}
	return e
}

func (e *element) Observer() Observer     { return e.observer }
func (e *element) SetObserver(o Observer) { e.observer = o }
func (e *element) Options() *Options      { return &e.options }

// SetVisible toggles rendering of the element and its descendants.
func (e *element) SetVisible(v bool) {
	e.options.Visible = v
	e.optionsChange()
}

// SetTransform sets the element's transform relative to its parent.
func (e *element) SetTransform(m geometry.Matrix) {
	e.options.Transform = &m
	e.optionsChange()
}

// SetOption updates a caller-defined option.
func (e *element) SetOption(key string, value any) {
	e.options.set(key, value)
	e.optionsChange()
}

func (e *element) setFill(color string, opacity float64) {
	e.options.Fill = &FillOptions{Color: color, Opacity: opacity}
	e.optionsChange()
}

func (e *element) setStroke(color string, width, opacity float64) {
	s := StrokeOptions{Color: color, Width: width, Opacity: opacity}
	if old := e.options.Stroke; old != nil {
		s.LineCap, s.LineJoin = old.LineCap, old.LineJoin
	}
	e.options.Stroke = &s
	e.optionsChange()
}

// transformed maps a local rect into parent coordinates.
func (e *element) transformed(r geometry.Rect) geometry.Rect {
	return r.Transform(e.options.Matrix())
}

func (e *element) childrenChange() {
	if e.observer != nil {
		e.observer.ChildrenChange()
	}
}

func (e *element) optionsChange() {
	if e.observer != nil {
		e.observer.OptionsChange()
	}
}

func (e *element) geometryChange() {
	if e.observer != nil {
		e.observer.GeometryChange()
	}
}
