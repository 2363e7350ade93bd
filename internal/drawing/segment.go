/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import "chartdraw/internal/geometry"

// Segment is one vertex of a path. Control points are offsets from the
// anchor: controlIn shapes the curve arriving at the anchor, controlOut the
// curve leaving it. Zero offsets give a sharp corner.
type Segment struct {
	anchor     *geometry.Point
	controlIn  *geometry.Point
	controlOut *geometry.Point
	observer   geometry.Observer
}

// NewSegment creates a segment; nil points are replaced with zero points.
func NewSegment(anchor, controlIn, controlOut *geometry.Point) *Segment {
	s := &Segment{}
	s.anchor = s.adopt(anchor)
	s.controlIn = s.adopt(controlIn)
	s.controlOut = s.adopt(controlOut)
	return s
}

func (s *Segment) adopt(p *geometry.Point) *geometry.Point {
	if p == nil {
		p = geometry.NewPoint(0, 0)
	}
	p.SetObserver(s)
	return p
}

func (s *Segment) release(p *geometry.Point) {
	if p.Observer() == geometry.Observer(s) {
		p.SetObserver(nil)
	}
}

func (s *Segment) Anchor() *geometry.Point     { return s.anchor }
func (s *Segment) ControlIn() *geometry.Point  { return s.controlIn }
func (s *Segment) ControlOut() *geometry.Point { return s.controlOut }

func (s *Segment) SetAnchor(p *geometry.Point) *Segment {
	s.release(s.anchor)
	s.anchor = s.adopt(p)
	s.GeometryChange()
	return s
}

func (s *Segment) SetControlIn(p *geometry.Point) *Segment {
	s.release(s.controlIn)
	s.controlIn = s.adopt(p)
	s.GeometryChange()
	return s
}

func (s *Segment) SetControlOut(p *geometry.Point) *Segment {
	s.release(s.controlOut)
	s.controlOut = s.adopt(p)
	s.GeometryChange()
	return s
}

// AbsControlIn returns controlIn in path coordinates.
func (s *Segment) AbsControlIn() geometry.Pt { return s.anchor.Pt().Add(s.controlIn.Pt()) }

// AbsControlOut returns controlOut in path coordinates.
func (s *Segment) AbsControlOut() geometry.Pt { return s.anchor.Pt().Add(s.controlOut.Pt()) }

func (s *Segment) Observer() geometry.Observer     { return s.observer }
func (s *Segment) SetObserver(o geometry.Observer) { s.observer = o }

// GeometryChange is called by the segment's points.
func (s *Segment) GeometryChange() {
	if s.observer != nil {
		s.observer.GeometryChange()
	}
}
