/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"math"

	"chartdraw/internal/geometry"
)

// Path is an ordered list of segments. It observes every segment and reports
// their changes as its own geometry changes.
type Path struct {
	element
	segments []*Segment
}

func NewPath(opts ...Option) *Path {
	return &Path{element: newElement(opts)}
}

// Segments returns the segment list. The slice must not be modified.
func (p *Path) Segments() []*Segment { return p.segments }

// MoveTo discards all segments and starts over at (x, y).
func (p *Path) MoveTo(x, y float64) *Path {
	for _, s := range p.segments {
		if s.Observer() == geometry.Observer(p) {
			s.SetObserver(nil)
		}
	}
	p.segments = nil
	return p.AppendSegment(NewSegment(geometry.NewPoint(x, y), nil, nil))
}

// LineTo appends a straight segment ending at (x, y).
func (p *Path) LineTo(x, y float64) *Path {
	return p.AppendSegment(NewSegment(geometry.NewPoint(x, y), nil, nil))
}

// CurveTo appends a cubic Bezier from the last anchor to `to` with absolute
// control points c1 and c2. On an empty path it behaves like LineTo.
func (p *Path) CurveTo(c1, c2, to geometry.Pt) *Path {
	if len(p.segments) == 0 {
		return p.LineTo(to.X, to.Y)
	}
	last := p.segments[len(p.segments)-1]
	out := c1.Sub(last.Anchor().Pt())
	in := c2.Sub(to)
	// one notification for the whole curve
	if cp := last.ControlOut(); cp.Observer() == geometry.Observer(last) {
		cp.SetObserver(nil)
		cp.Move(out.X, out.Y)
		cp.SetObserver(last)
	} else {
		cp.Move(out.X, out.Y)
	}
	return p.AppendSegment(NewSegment(geometry.NewPoint(to.X, to.Y), geometry.NewPoint(in.X, in.Y), nil))
}

// AppendSegment adds an existing segment and starts observing it.
func (p *Path) AppendSegment(s *Segment) *Path {
	s.SetObserver(p)
	p.segments = append(p.segments, s)
	p.geometryChange()
	return p
}

// Close marks the path closed. It is reported as a geometry change only.
func (p *Path) Close() *Path {
	p.options.Closed = true
	p.geometryChange()
	return p
}

func (p *Path) Fill(color string, opacity float64) *Path {
	p.setFill(color, opacity)
	return p
}

func (p *Path) Stroke(color string, width, opacity float64) *Path {
	p.setStroke(color, width, opacity)
	return p
}

// GeometryChange is called by the path's segments.
func (p *Path) GeometryChange() { p.geometryChange() }

// outline returns the rectangle of anchors and control points in local
// coordinates, without stroke padding.
func (p *Path) outline() (geometry.Rect, bool) {
	if len(p.segments) == 0 {
		return geometry.Rect{}, false
	}
	pts := make([]geometry.Pt, 0, 3*len(p.segments))
	for _, s := range p.segments {
		pts = append(pts, s.Anchor().Pt(), s.AbsControlIn(), s.AbsControlOut())
	}
	return geometry.RectFromPoints(pts...), true
}

// BoundingRect covers anchors and control points, padded by half the stroke width.
func (p *Path) BoundingRect() (geometry.Rect, bool) {
	r, ok := p.outline()
	if !ok {
		return r, false
	}
	return p.transformed(r.Expand(p.options.StrokeWidth() / 2)), true
}

// MultiPath is an ordered list of sub-paths drawn as one element. Drawing
// commands go to the last sub-path; MoveTo always starts a new one.
type MultiPath struct {
	element
	paths []*Path
}

func NewMultiPath(opts ...Option) *MultiPath {
	return &MultiPath{element: newElement(opts)}
}

// Paths returns the sub-paths. The slice must not be modified.
func (m *MultiPath) Paths() []*Path { return m.paths }

// MoveTo starts a new sub-path at (x, y).
func (m *MultiPath) MoveTo(x, y float64) *MultiPath {
	path := NewPath()
	path.SetObserver(m)
	m.paths = append(m.paths, path)
	path.MoveTo(x, y)
	return m
}

// LineTo extends the last sub-path. It does nothing before the first MoveTo.
func (m *MultiPath) LineTo(x, y float64) *MultiPath {
	if last := m.last(); last != nil {
		last.LineTo(x, y)
	}
	return m
}

// CurveTo extends the last sub-path with a cubic Bezier. It does nothing
// before the first MoveTo.
func (m *MultiPath) CurveTo(c1, c2, to geometry.Pt) *MultiPath {
	if last := m.last(); last != nil {
		last.CurveTo(c1, c2, to)
	}
	return m
}

// Close closes the last sub-path. It does nothing before the first MoveTo.
func (m *MultiPath) Close() *MultiPath {
	if last := m.last(); last != nil {
		last.Close()
	}
	return m
}

// AppendPath adds an existing path as the last sub-path.
func (m *MultiPath) AppendPath(p *Path) *MultiPath {
	p.SetObserver(m)
	m.paths = append(m.paths, p)
	m.geometryChange()
	return m
}

func (m *MultiPath) last() *Path {
	if len(m.paths) == 0 {
		return nil
	}
	return m.paths[len(m.paths)-1]
}

func (m *MultiPath) Fill(color string, opacity float64) *MultiPath {
	m.setFill(color, opacity)
	return m
}

func (m *MultiPath) Stroke(color string, width, opacity float64) *MultiPath {
	m.setStroke(color, width, opacity)
	return m
}

// ChildrenChange, OptionsChange and GeometryChange re-emit sub-path events.
func (m *MultiPath) ChildrenChange() { m.childrenChange() }
func (m *MultiPath) OptionsChange()  { m.optionsChange() }
func (m *MultiPath) GeometryChange() { m.geometryChange() }

// BoundingRect unions the sub-paths. Each one is padded by half the wider
// of its own stroke and the multipath's stroke.
func (m *MultiPath) BoundingRect() (geometry.Rect, bool) {
	var b geometry.Rect
	found := false
	w := m.options.StrokeWidth()
	for _, p := range m.paths {
		r, ok := p.outline()
		if !ok {
			continue
		}
		r = r.Expand(math.Max(w, p.options.StrokeWidth()) / 2).Transform(p.options.Matrix())
		if !found {
			b, found = r, true
		} else {
			b = b.Union(r)
		}
	}
	if !found {
		return geometry.Rect{}, false
	}
	return m.transformed(b), true
}
