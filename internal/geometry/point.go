/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Observer is notified synchronously after a geometry value changed.
type Observer interface {
	GeometryChange()
}

// Point is a mutable coordinate that reports every change to its observer.
type Point struct {
	x, y     float64
	observer Observer
}

func NewPoint(x, y float64) *Point { return &Point{x: x, y: y} }

func (p *Point) X() float64 { return p.x }
func (p *Point) Y() float64 { return p.y }

// Pt returns the current coordinate as a plain value.
func (p *Point) Pt() Pt { return Pt{p.x, p.y} }

func (p *Point) SetX(x float64) *Point {
	p.x = x
	p.changed()
	return p
}

func (p *Point) SetY(y float64) *Point {
	p.y = y
	p.changed()
	return p
}

// Move sets both coordinates with a single notification.
func (p *Point) Move(x, y float64) *Point {
	p.x, p.y = x, y
	p.changed()
	return p
}

// Clone returns an unobserved copy.
func (p *Point) Clone() *Point { return &Point{x: p.x, y: p.y} }

func (p *Point) Observer() Observer     { return p.observer }
func (p *Point) SetObserver(o Observer) { p.observer = o }

func (p *Point) changed() {
	if p.observer != nil {
		p.observer.GeometryChange()
	}
}
