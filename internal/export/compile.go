/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders scene documents to SVG, PNG and PDF.
//
// Rendering happens in two steps: Compile flattens the drawing tree into
// figures in document coordinates, then a backend paints the figures in
// order. Hidden elements and their descendants are skipped.
package export

import (
	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
	"chartdraw/internal/scene"
	"chartdraw/internal/textlayout"
)

// kappa places cubic control points so that four curves approximate a circle.
const kappa = 0.5522847498

// Op is a path drawing command.
type Op byte

const (
	OpMove  Op = 'M'
	OpLine  Op = 'L'
	OpCurve Op = 'C'
	OpClose Op = 'Z'
)

// Command is one path command. Move and Line use Pts[0]; Curve uses all
// three points (two controls, then the end point).
type Command struct {
	Op  Op
	Pts [3]geometry.Pt
}

// Label is a text element laid out in document coordinates. Baselines holds
// the left end of each line's baseline.
type Label struct {
	Lines     []string
	Baselines []geometry.Pt
	Font      textlayout.FontSpec
}

// Figure is a single paint operation. Exactly one of Cmds and Label is set.
type Figure struct {
	Cmds   []Command
	Label  *Label
	Fill   *drawing.FillOptions
	Stroke *drawing.StrokeOptions
}

// defaultTextFill is used for labels without an explicit fill.
var defaultTextFill = drawing.FillOptions{Color: "black", Opacity: 1}

// Compile flattens the visible tree of doc into figures in paint order.
func Compile(doc *scene.Document) []Figure {
	if doc == nil || doc.Root == nil {
		return nil
	}
	var out []Figure
	compileElement(&out, doc.Root, geometry.Identity)
	return out
}

func compileElement(out *[]Figure, e drawing.Element, parent geometry.Matrix) {
	o := e.Options()
	if !o.Visible {
		return
	}
	m := parent.Mul(o.Matrix())
	switch el := e.(type) {
	case *drawing.Group:
		for _, c := range el.Children() {
			compileElement(out, c, m)
		}
	case *drawing.Circle:
		cmds := circleCommands(el.Geometry().Center().Pt(), el.Geometry().Radius(), m)
		appendShape(out, cmds, o, m)
	case *drawing.Path:
		appendShape(out, pathCommands(el, m), o, m)
	case *drawing.MultiPath:
		var cmds []Command
		for _, p := range el.Paths() {
			cmds = append(cmds, pathCommands(p, m)...)
		}
		appendShape(out, cmds, o, m)
	case *drawing.Text:
		appendLabel(out, el, m)
	}
}

func appendShape(out *[]Figure, cmds []Command, o *drawing.Options, m geometry.Matrix) {
	if len(cmds) == 0 || (o.Fill == nil && o.Stroke == nil) {
		return
	}
	*out = append(*out, Figure{Cmds: cmds, Fill: o.Fill, Stroke: scaledStroke(o.Stroke, m)})
}

func scaledStroke(s *drawing.StrokeOptions, m geometry.Matrix) *drawing.StrokeOptions {
	if s == nil {
		return nil
	}
	c := *s
	if c.Width <= 0 {
		c.Width = 1
	}
	c.Width *= m.ScaleFactor()
	return &c
}

// pathCommands converts segments to commands. A straight line is used
// between two segments when neither has a control point facing the other.
// A closed path always draws its closing join explicitly before Z, unless
// the join is a straight line of zero length.
func pathCommands(p *drawing.Path, m geometry.Matrix) []Command {
	segs := p.Segments()
	if len(segs) == 0 {
		return nil
	}
	cmds := make([]Command, 0, len(segs)+2)
	cmds = append(cmds, Command{Op: OpMove, Pts: [3]geometry.Pt{m.Apply(segs[0].Anchor().Pt())}})
	for i := 1; i < len(segs); i++ {
		cmds = append(cmds, joinSegments(segs[i-1], segs[i], m))
	}
	if p.Options().Closed {
		last, first := segs[len(segs)-1], segs[0]
		curved := !last.ControlOut().Pt().IsZero() || !first.ControlIn().Pt().IsZero()
		if len(segs) > 1 && (curved || last.Anchor().Pt() != first.Anchor().Pt()) {
			cmds = append(cmds, joinSegments(last, first, m))
		}
		cmds = append(cmds, Command{Op: OpClose})
	}
	return cmds
}

func joinSegments(from, to *drawing.Segment, m geometry.Matrix) Command {
	if from.ControlOut().Pt().IsZero() && to.ControlIn().Pt().IsZero() {
		return Command{Op: OpLine, Pts: [3]geometry.Pt{m.Apply(to.Anchor().Pt())}}
	}
	return Command{Op: OpCurve, Pts: [3]geometry.Pt{
		m.Apply(from.AbsControlOut()),
		m.Apply(to.AbsControlIn()),
		m.Apply(to.Anchor().Pt()),
	}}
}

func circleCommands(c geometry.Pt, r float64, m geometry.Matrix) []Command {
	if r <= 0 {
		return nil
	}
	k := r * kappa
	pt := func(x, y float64) geometry.Pt { return m.Apply(geometry.Pt{X: c.X + x, Y: c.Y + y}) }
	curve := func(c1x, c1y, c2x, c2y, x, y float64) Command {
		return Command{Op: OpCurve, Pts: [3]geometry.Pt{pt(c1x, c1y), pt(c2x, c2y), pt(x, y)}}
	}
	return []Command{
		{Op: OpMove, Pts: [3]geometry.Pt{pt(r, 0)}},
		curve(r, k, k, r, 0, r),
		curve(-k, r, -r, k, -r, 0),
		curve(-r, -k, -k, -r, 0, -r),
		curve(k, -r, r, -k, r, 0),
		{Op: OpClose},
	}
}

// appendLabel lays out a text element. Translation and uniform scale are
// applied to the baselines and font size; rotation and skew are not.
func appendLabel(out *[]Figure, t *drawing.Text, m geometry.Matrix) {
	box := t.Layout()
	if len(box.Lines) == 0 {
		return
	}
	spec := t.Font()
	spec.SizePt *= m.ScaleFactor()
	origin := t.Origin().Pt()
	l := &Label{Lines: box.Lines, Font: spec}
	for i := range box.Lines {
		p := geometry.Pt{X: origin.X, Y: origin.Y + box.Ascent + float64(i)*box.LineHeight}
		l.Baselines = append(l.Baselines, m.Apply(p))
	}
	fill := t.Options().Fill
	if fill == nil && t.Options().Stroke == nil {
		fill = &defaultTextFill
	}
	*out = append(*out, Figure{Label: l, Fill: fill, Stroke: scaledStroke(t.Options().Stroke, m)})
}
