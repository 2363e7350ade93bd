/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Circle is an observable circle. It observes its center point and forwards
// center moves to its own observer.
type Circle struct {
	center   *Point
	radius   float64
	observer Observer
}

// NewCircle creates a circle around center. A nil center is placed at the origin.
func NewCircle(center *Point, radius float64) *Circle {
	if center == nil {
		center = NewPoint(0, 0)
	}
	c := &Circle{center: center, radius: radius}
	center.SetObserver(c)
	return c
}

func (c *Circle) Center() *Point  { return c.center }
func (c *Circle) Radius() float64 { return c.radius }

// SetCenter replaces the center point and starts observing it.
func (c *Circle) SetCenter(p *Point) *Circle {
	if c.center != nil && c.center.Observer() == Observer(c) {
		c.center.SetObserver(nil)
	}
	c.center = p
	p.SetObserver(c)
	c.GeometryChange()
	return c
}

func (c *Circle) SetRadius(r float64) *Circle {
	c.radius = r
	c.GeometryChange()
	return c
}

func (c *Circle) BoundingRect() Rect {
	cx, cy := c.center.X(), c.center.Y()
	return Rect{P0: Pt{cx - c.radius, cy - c.radius}, P1: Pt{cx + c.radius, cy + c.radius}}
}

func (c *Circle) Observer() Observer     { return c.observer }
func (c *Circle) SetObserver(o Observer) { c.observer = o }

// GeometryChange forwards a change of the center point.
func (c *Circle) GeometryChange() {
	if c.observer != nil {
		c.observer.GeometryChange()
	}
}
