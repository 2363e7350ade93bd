/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Value types for 2D geometry: coordinates, axis-aligned rectangles and affine transforms.
// Values use float64 so chart data round-trips without precision loss.

import "math"

// Pt is a plain 2D coordinate.
type Pt struct{ X, Y float64 }

// Add returns p translated by o.
func (p Pt) Add(o Pt) Pt { return Pt{p.X + o.X, p.Y + o.Y} }

// Sub returns p - o.
func (p Pt) Sub(o Pt) Pt { return Pt{p.X - o.X, p.Y - o.Y} }

// IsZero reports whether both coordinates are zero.
func (p Pt) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Rect is an axis-aligned rectangle given by its top-left (P0) and bottom-right (P1) corners.
type Rect struct {
	P0, P1 Pt
}

func NewRect(x0, y0, x1, y1 float64) Rect { return Rect{P0: Pt{x0, y0}, P1: Pt{x1, y1}} }

// RectFromPoints returns the smallest rectangle containing all pts.
// It returns the zero Rect when pts is empty.
func RectFromPoints(pts ...Pt) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{P0: pts[0], P1: pts[0]}
	for _, p := range pts[1:] {
		r.P0.X = math.Min(r.P0.X, p.X)
		r.P0.Y = math.Min(r.P0.Y, p.Y)
		r.P1.X = math.Max(r.P1.X, p.X)
		r.P1.Y = math.Max(r.P1.Y, p.Y)
	}
	return r
}

func (r Rect) Width() float64  { return r.P1.X - r.P0.X }
func (r Rect) Height() float64 { return r.P1.Y - r.P0.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Pt {
	return Pt{(r.P0.X + r.P1.X) / 2, (r.P0.Y + r.P1.Y) / 2}
}

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.P0.X && p.Y >= r.P0.Y && p.X <= r.P1.X && p.Y <= r.P1.Y
}

// Expand grows every edge of r outward by d (negative shrinks).
func (r Rect) Expand(d float64) Rect {
	return Rect{P0: Pt{r.P0.X - d, r.P0.Y - d}, P1: Pt{r.P1.X + d, r.P1.Y + d}}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		P0: Pt{math.Min(r.P0.X, o.P0.X), math.Min(r.P0.Y, o.P0.Y)},
		P1: Pt{math.Max(r.P1.X, o.P1.X), math.Max(r.P1.Y, o.P1.Y)},
	}
}

// Transform returns the bounding box of r's four corners mapped through m.
func (r Rect) Transform(m Matrix) Rect {
	if m.IsIdentity() {
		return r
	}
	return RectFromPoints(
		m.Apply(r.P0),
		m.Apply(Pt{r.P1.X, r.P0.Y}),
		m.Apply(Pt{r.P0.X, r.P1.Y}),
		m.Apply(r.P1),
	)
}

// Matrix represents a 2D affine transform:
// | a c e |
// | b d f |
// | 0 0 1 |
type Matrix struct{ A, B, C, D, E, F float64 }

var Identity = Matrix{A: 1, D: 1}

func (m Matrix) IsIdentity() bool { return m == Identity }

// Mul returns m*n, i.e. n is applied first.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Matrix) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ScaleFactor is the geometric mean of the axis scales, used to scale stroke widths.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}

func Translate(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{A: sx, D: sy} }
func Rotate(rad float64) Matrix {
	c, s := math.Cos(rad), math.Sin(rad)
	return Matrix{A: c, B: s, C: -s, D: c}
}
