/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import "chartdraw/internal/geometry"

// Shape is a styled element without geometry of its own.
type Shape struct {
	element
}

func NewShape(opts ...Option) *Shape {
	return &Shape{element: newElement(opts)}
}

func (s *Shape) Fill(color string, opacity float64) *Shape {
	s.setFill(color, opacity)
	return s
}

func (s *Shape) Stroke(color string, width, opacity float64) *Shape {
	s.setStroke(color, width, opacity)
	return s
}

func (s *Shape) BoundingRect() (geometry.Rect, bool) { return geometry.Rect{}, false }

// Circle draws a circle geometry. The geometry is shared by reference and
// observed: moving its center or changing its radius is reported as a
// geometry change of the element.
type Circle struct {
	element
	geom *geometry.Circle
}

func NewCircle(g *geometry.Circle, opts ...Option) *Circle {
	if g == nil {
		g = geometry.NewCircle(nil, 0)
	}
	c := &Circle{element: newElement(opts), geom: g}
	g.SetObserver(c)
	return c
}

func (c *Circle) Geometry() *geometry.Circle { return c.geom }

// SetGeometry replaces the circle geometry and starts observing it.
func (c *Circle) SetGeometry(g *geometry.Circle) *Circle {
	if c.geom.Observer() == geometry.Observer(c) {
		c.geom.SetObserver(nil)
	}
	c.geom = g
	g.SetObserver(c)
	c.geometryChange()
	return c
}

func (c *Circle) Fill(color string, opacity float64) *Circle {
	c.setFill(color, opacity)
	return c
}

func (c *Circle) Stroke(color string, width, opacity float64) *Circle {
	c.setStroke(color, width, opacity)
	return c
}

// GeometryChange is called by the circle geometry.
func (c *Circle) GeometryChange() { c.geometryChange() }

// BoundingRect is the geometry's rectangle padded by half the stroke width.
func (c *Circle) BoundingRect() (geometry.Rect, bool) {
	r := c.geom.BoundingRect().Expand(c.options.StrokeWidth() / 2)
	return c.transformed(r), true
}
