/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

type countingObserver struct{ n int }

func (c *countingObserver) GeometryChange() { c.n++ }

func TestRectUnionAndExpand(t *testing.T) {
	a := NewRect(30, 70, 120, 170)
	b := NewRect(50, 50, 150, 150)
	u := a.Union(b)
	if u != NewRect(30, 50, 150, 170) {
		t.Fatalf("unexpected union: %+v", u)
	}
	e := b.Expand(2.5)
	if e != NewRect(47.5, 47.5, 152.5, 152.5) {
		t.Fatalf("unexpected expand: %+v", e)
	}
	if u.Width() != 120 || u.Height() != 120 {
		t.Fatalf("unexpected size: %v x %v", u.Width(), u.Height())
	}
	if !u.Contains(Pt{30, 50}) || u.Contains(Pt{29, 50}) {
		t.Fatalf("contains mismatch")
	}
}

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints(Pt{5, 1}, Pt{-2, 7}, Pt{3, 3})
	if r != NewRect(-2, 1, 5, 7) {
		t.Fatalf("unexpected rect: %+v", r)
	}
	if RectFromPoints() != (Rect{}) {
		t.Fatalf("empty input should give zero rect")
	}
}

func TestMatrixBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
	if !Identity.IsIdentity() || m.IsIdentity() {
		t.Fatalf("identity check failed")
	}
	if f := Scale(2, 8).ScaleFactor(); f != 4 {
		t.Fatalf("unexpected scale factor: %v", f)
	}
}

func TestRectTransformRotated(t *testing.T) {
	r := NewRect(0, 0, 10, 10).Transform(Rotate(math.Pi / 2))
	if math.Abs(r.P0.X+10) > 1e-9 || math.Abs(r.P1.Y-10) > 1e-9 {
		t.Fatalf("unexpected rotated rect: %+v", r)
	}
	if NewRect(1, 2, 3, 4).Transform(Identity) != NewRect(1, 2, 3, 4) {
		t.Fatalf("identity transform must not change rect")
	}
}

func TestPointSettersNotifyOnce(t *testing.T) {
	p := NewPoint(1, 2)
	obs := &countingObserver{}
	p.SetObserver(obs)
	p.SetX(5)
	if obs.n != 1 || p.X() != 5 {
		t.Fatalf("SetX: n=%d x=%v", obs.n, p.X())
	}
	p.SetY(6)
	p.Move(7, 8)
	if obs.n != 3 || p.Pt() != (Pt{7, 8}) {
		t.Fatalf("unexpected state: n=%d p=%+v", obs.n, p.Pt())
	}
	if c := p.Clone(); c.Observer() != nil || c.Pt() != p.Pt() {
		t.Fatalf("clone should copy coordinates only")
	}
}

func TestCircleForwardsCenterAndRadius(t *testing.T) {
	c := NewCircle(NewPoint(0, 0), 10)
	obs := &countingObserver{}
	c.SetObserver(obs)

	c.Center().SetX(5)
	if obs.n != 1 {
		t.Fatalf("center change should notify once, got %d", obs.n)
	}
	c.SetRadius(5)
	if obs.n != 2 {
		t.Fatalf("radius change should notify once, got %d", obs.n)
	}
	if b := c.BoundingRect(); b != NewRect(0, -5, 10, 5) {
		t.Fatalf("unexpected bounds: %+v", b)
	}

	old := c.Center()
	c.SetCenter(NewPoint(100, 100))
	if obs.n != 3 {
		t.Fatalf("SetCenter should notify once, got %d", obs.n)
	}
	old.SetX(1)
	if obs.n != 3 {
		t.Fatalf("detached center must not notify")
	}
}

func TestCircleNilCenter(t *testing.T) {
	c := NewCircle(nil, 3)
	if c.Center() == nil || c.BoundingRect() != NewRect(-3, -3, 3, 3) {
		t.Fatalf("nil center should default to origin")
	}
}
