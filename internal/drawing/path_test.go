/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"testing"

	"chartdraw/internal/geometry"
)

func newTestSegment() *Segment {
	return NewSegment(geometry.NewPoint(0, 0), geometry.NewPoint(10, 10), geometry.NewPoint(-10, -10))
}

func TestSegment_ParameterlessCreatesPoints(t *testing.T) {
	s := NewSegment(nil, nil, nil)
	if s.Anchor() == nil || s.ControlIn() == nil || s.ControlOut() == nil {
		t.Fatalf("segment points must not be nil")
	}
	if s.Anchor().Pt() != (geometry.Pt{}) {
		t.Fatalf("default anchor should be the zero point")
	}
}

func TestSegment_PointChangesTriggerGeometryChangeOnce(t *testing.T) {
	for name, pick := range map[string]func(*Segment) *geometry.Point{
		"anchor":     (*Segment).Anchor,
		"controlIn":  (*Segment).ControlIn,
		"controlOut": (*Segment).ControlOut,
	} {
		s := newTestSegment()
		rec := &recorder{}
		s.SetObserver(rec)
		pick(s).SetX(5)
		if rec.geometry != 1 {
			t.Fatalf("%s: expected 1 geometryChange, got %d", name, rec.geometry)
		}
	}
}

func TestSegment_ReplacePoint(t *testing.T) {
	s := newTestSegment()
	rec := &recorder{}
	s.SetObserver(rec)
	old := s.Anchor()
	s.SetAnchor(geometry.NewPoint(1, 1))
	old.SetX(9)
	s.Anchor().SetX(2)
	if rec.geometry != 2 {
		t.Fatalf("expected 2 geometryChange, got %d", rec.geometry)
	}
	if s.AbsControlIn() != (geometry.Pt{X: 12, Y: 11}) || s.AbsControlOut() != (geometry.Pt{X: -8, Y: -9}) {
		t.Fatalf("unexpected absolute controls: %+v %+v", s.AbsControlIn(), s.AbsControlOut())
	}
}

func TestPath_MoveTo(t *testing.T) {
	p := NewPath()
	if p.MoveTo(0, 0) != p {
		t.Fatalf("moveTo should return the path")
	}
	if len(p.Segments()) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(p.Segments()))
	}
	p.LineTo(10, 10)
	p.MoveTo(0, 0)
	if len(p.Segments()) != 1 {
		t.Fatalf("moveTo should clear segments, got %d", len(p.Segments()))
	}
}

func TestPath_LineTo(t *testing.T) {
	p := NewPath()
	if p.LineTo(0, 0) != p {
		t.Fatalf("lineTo should return the path")
	}
	if len(p.Segments()) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(p.Segments()))
	}
	for i := 2; i <= 5; i++ {
		p.LineTo(float64(i), 0)
		if len(p.Segments()) != i {
			t.Fatalf("lineTo should append exactly one segment, got %d", len(p.Segments()))
		}
	}
}

func TestPath_InitialOptions(t *testing.T) {
	p := NewPath(WithOption("foo", true))
	if v, ok := p.Options().Get("foo"); !ok || v != true {
		t.Fatalf("expected foo option")
	}
}

func TestPath_AddingPointTriggersGeometryChange(t *testing.T) {
	p := NewPath()
	rec := &recorder{}
	p.SetObserver(rec)
	p.MoveTo(0, 0)
	if rec.geometry != 1 {
		t.Fatalf("expected 1 geometryChange, got %d", rec.geometry)
	}
	p.LineTo(1, 1)
	p.Segments()[0].Anchor().SetY(3)
	if rec.geometry != 3 {
		t.Fatalf("expected 3 geometryChange, got %d", rec.geometry)
	}
}

func TestPath_MoveToDetachesOldSegments(t *testing.T) {
	p := NewPath().MoveTo(0, 0)
	old := p.Segments()[0]
	p.MoveTo(1, 1)
	rec := &recorder{}
	p.SetObserver(rec)
	old.Anchor().SetX(4)
	if rec.geometry != 0 {
		t.Fatalf("discarded segment must not notify the path")
	}
}

func TestPath_MoveToKeepsSegmentsOwnedElsewhere(t *testing.T) {
	a := NewPath().MoveTo(0, 0)
	shared := a.Segments()[0]
	b := NewPath()
	b.AppendSegment(shared)
	a.MoveTo(1, 1)
	if shared.Observer() != geometry.Observer(b) {
		t.Fatalf("moveTo must not detach a segment owned by another path")
	}
	rec := &recorder{}
	b.SetObserver(rec)
	shared.Anchor().SetX(4)
	if rec.geometry != 1 {
		t.Fatalf("owning path should still be notified, got %d", rec.geometry)
	}
}

func TestPath_CurveToKeepsSharedControlOwner(t *testing.T) {
	p := NewPath().MoveTo(0, 0)
	cp := p.Segments()[0].ControlOut()
	other := NewSegment(nil, nil, nil)
	other.SetControlIn(cp)
	rec := &recorder{}
	other.SetObserver(rec)
	p.CurveTo(geometry.Pt{X: 5, Y: 5}, geometry.Pt{X: 10, Y: 0}, geometry.Pt{X: 10, Y: 10})
	if cp.Observer() != geometry.Observer(other) {
		t.Fatalf("curveTo must not take over a control point owned elsewhere")
	}
	if rec.geometry != 1 {
		t.Fatalf("owner of the moved control point should be notified once, got %d", rec.geometry)
	}
	if p.Segments()[0].AbsControlOut() != (geometry.Pt{X: 5, Y: 5}) {
		t.Fatalf("control point not moved: %+v", p.Segments()[0].AbsControlOut())
	}
}

func TestPath_Close(t *testing.T) {
	p := NewPath()
	rec := &recorder{}
	p.SetObserver(rec)
	if p.Close() != p {
		t.Fatalf("close should return the path")
	}
	if !p.Options().Closed {
		t.Fatalf("close should set closed")
	}
	if rec.geometry != 1 {
		t.Fatalf("expected 1 geometryChange, got %d", rec.geometry)
	}
	if rec.options != 0 {
		t.Fatalf("close must not trigger optionsChange")
	}
}

func TestPath_CurveTo(t *testing.T) {
	p := NewPath().MoveTo(0, 0)
	rec := &recorder{}
	p.SetObserver(rec)
	p.CurveTo(geometry.Pt{X: 0, Y: -10}, geometry.Pt{X: 20, Y: -10}, geometry.Pt{X: 20, Y: 0})
	if rec.geometry != 1 {
		t.Fatalf("curveTo should notify once, got %d", rec.geometry)
	}
	segs := p.Segments()
	if len(segs) != 2 || segs[0].AbsControlOut() != (geometry.Pt{X: 0, Y: -10}) || segs[1].AbsControlIn() != (geometry.Pt{X: 20, Y: -10}) {
		t.Fatalf("unexpected curve segments")
	}
	b, _ := p.BoundingRect()
	if b != geometry.NewRect(0, -10, 20, 0) {
		t.Fatalf("bounds should include control points: %+v", b)
	}
	if n := len(NewPath().CurveTo(geometry.Pt{}, geometry.Pt{}, geometry.Pt{X: 1, Y: 1}).Segments()); n != 1 {
		t.Fatalf("curveTo on empty path should add one segment, got %d", n)
	}
}

func TestPath_BoundingRectWithStroke(t *testing.T) {
	p := NewPath().MoveTo(30, 70).LineTo(120, 170).Stroke("black", 4, 1)
	b, ok := p.BoundingRect()
	if !ok || b != geometry.NewRect(28, 68, 122, 172) {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	if _, ok := NewPath().BoundingRect(); ok {
		t.Fatalf("empty path has no rect")
	}
}

func TestMultiPath_MoveTo(t *testing.T) {
	m := NewMultiPath()
	if m.MoveTo(0, 0) != m {
		t.Fatalf("moveTo should return the multipath")
	}
	if len(m.Paths()) != 1 || len(m.Paths()[0].Segments()) != 1 {
		t.Fatalf("moveTo should add a path with one segment")
	}
	if m.Paths()[0].Observer() != Observer(m) {
		t.Fatalf("moveTo should set the path observer")
	}
	m.LineTo(0, 0).MoveTo(0, 0)
	if len(m.Paths()) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(m.Paths()))
	}
}

func TestMultiPath_LineTo(t *testing.T) {
	m := NewMultiPath()
	if m.LineTo(0, 0) != m || len(m.Paths()) != 0 {
		t.Fatalf("lineTo before moveTo must be a no-op")
	}
	m.MoveTo(0, 0).LineTo(0, 0)
	if len(m.Paths()[0].Segments()) != 2 {
		t.Fatalf("lineTo should add a segment")
	}

	m = NewMultiPath().MoveTo(0, 0).MoveTo(0, 0).LineTo(0, 0)
	if len(m.Paths()[1].Segments()) != 2 || len(m.Paths()[0].Segments()) != 1 {
		t.Fatalf("lineTo should extend the last path only")
	}
}

func TestMultiPath_Close(t *testing.T) {
	m := NewMultiPath()
	if m.Close() != m || len(m.Paths()) != 0 {
		t.Fatalf("close before moveTo must be a no-op")
	}
	if m.MoveTo(0, 0).Close() != m {
		t.Fatalf("close should return the multipath")
	}
	if !m.Paths()[0].Options().Closed {
		t.Fatalf("close should close the last path")
	}
}

func TestMultiPath_ReemitsPathEvents(t *testing.T) {
	m := NewMultiPath()
	rec := &recorder{}
	m.SetObserver(rec)
	m.MoveTo(0, 0)
	m.LineTo(1, 1)
	m.Close()
	if rec.geometry != 3 {
		t.Fatalf("expected 3 geometryChange, got %d", rec.geometry)
	}
	m.Paths()[0].Fill("red", 1)
	if rec.options != 1 {
		t.Fatalf("expected path options change to be re-emitted, got %d", rec.options)
	}
	m.CurveTo(geometry.Pt{}, geometry.Pt{}, geometry.Pt{X: 2, Y: 2})
	if rec.geometry != 4 {
		t.Fatalf("expected 4 geometryChange, got %d", rec.geometry)
	}
}

func TestMultiPath_BoundingRect(t *testing.T) {
	m := NewMultiPath()
	if _, ok := m.BoundingRect(); ok {
		t.Fatalf("empty multipath has no rect")
	}
	m.MoveTo(0, 0).LineTo(10, 10).MoveTo(20, -5).LineTo(30, 0).Stroke("black", 2, 1)
	b, ok := m.BoundingRect()
	if !ok || b != geometry.NewRect(-1, -6, 31, 11) {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	m.AppendPath(NewPath().MoveTo(100, 100))
	if b, _ := m.BoundingRect(); b.P1 != (geometry.Pt{X: 101, Y: 101}) {
		t.Fatalf("appended path not included: %+v", b)
	}
}

func TestMultiPath_BoundingRectUsesSubPathStroke(t *testing.T) {
	m := NewMultiPath().MoveTo(0, 0).LineTo(10, 0).MoveTo(0, 20).LineTo(10, 20)
	m.Stroke("black", 2, 1)
	m.Paths()[1].Stroke("black", 6, 1)
	b, ok := m.BoundingRect()
	if !ok || b != geometry.NewRect(-3, -1, 13, 23) {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	m.Stroke("black", 10, 1)
	if b, _ := m.BoundingRect(); b != geometry.NewRect(-5, -5, 15, 25) {
		t.Fatalf("multipath stroke should win when wider: %+v", b)
	}
}
