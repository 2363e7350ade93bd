/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"math"
	"testing"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
	"chartdraw/internal/scene"
)

func newDoc(nodes ...drawing.Element) *scene.Document {
	doc := scene.New("test", 100, 100)
	doc.Background = "white"
	doc.Root.Append(nodes...)
	return doc
}

func ops(cmds []Command) string {
	s := make([]byte, len(cmds))
	for i, c := range cmds {
		s[i] = byte(c.Op)
	}
	return string(s)
}

func TestCompilePathCommands(t *testing.T) {
	p := drawing.NewPath().MoveTo(0, 0).LineTo(10, 0).
		CurveTo(geometry.Pt{X: 15, Y: 0}, geometry.Pt{X: 20, Y: 5}, geometry.Pt{X: 20, Y: 10}).Close()
	p.Stroke("black", 1, 1)
	figs := Compile(newDoc(p))
	if len(figs) != 1 {
		t.Fatalf("expected 1 figure, got %d", len(figs))
	}
	if got := ops(figs[0].Cmds); got != "MLCLZ" {
		t.Fatalf("unexpected commands %q", got)
	}
	c := figs[0].Cmds[2]
	want := [3]geometry.Pt{{X: 15, Y: 0}, {X: 20, Y: 5}, {X: 20, Y: 10}}
	if c.Pts != want {
		t.Fatalf("curve points %+v, want %+v", c.Pts, want)
	}
	if figs[0].Fill != nil || figs[0].Stroke.Width != 1 {
		t.Fatalf("unexpected paint %+v", figs[0])
	}
}

func TestCompileClosingJoin(t *testing.T) {
	for _, tc := range []struct {
		name string
		path *drawing.Path
		want string
	}{
		{"open", drawing.NewPath().MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10), "MLL"},
		{"straight", drawing.NewPath().MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10).Close(), "MLLLZ"},
		{"back at start", drawing.NewPath().MoveTo(0, 0).LineTo(10, 0).LineTo(0, 0).Close(), "MLLZ"},
		{"single point", drawing.NewPath().MoveTo(5, 5).Close(), "MZ"},
	} {
		tc.path.Stroke("black", 1, 1)
		figs := Compile(newDoc(tc.path))
		if len(figs) != 1 {
			t.Fatalf("%s: expected 1 figure, got %d", tc.name, len(figs))
		}
		if got := ops(figs[0].Cmds); got != tc.want {
			t.Fatalf("%s: commands %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCompileCurvedClosingJoin(t *testing.T) {
	p := drawing.NewPath().MoveTo(0, 0).LineTo(10, 0).Close()
	p.Segments()[1].ControlOut().Move(0, 10)
	p.Segments()[0].ControlIn().Move(0, 10)
	p.Stroke("black", 1, 1)
	figs := Compile(newDoc(p))
	if got := ops(figs[0].Cmds); got != "MLCZ" {
		t.Fatalf("unexpected commands %q", got)
	}
	want := [3]geometry.Pt{{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	if c := figs[0].Cmds[2]; c.Pts != want {
		t.Fatalf("closing curve %+v, want %+v", c.Pts, want)
	}
}

func TestCompileSkipsHiddenAndUnpainted(t *testing.T) {
	hidden := drawing.NewGroup(drawing.WithVisible(false))
	hidden.Append(drawing.NewPath().MoveTo(0, 0).LineTo(5, 5).Fill("red", 1))
	unpainted := drawing.NewPath().MoveTo(0, 0).LineTo(5, 5)
	empty := drawing.NewPath().Fill("red", 1)
	figs := Compile(newDoc(hidden, unpainted, empty, drawing.NewShape()))
	if len(figs) != 0 {
		t.Fatalf("expected nothing to paint, got %d figures", len(figs))
	}
}

func TestCompileAppliesNestedTransforms(t *testing.T) {
	outer := drawing.NewGroup(drawing.WithTransform(geometry.Translate(10, 20)))
	inner := drawing.NewGroup(drawing.WithTransform(geometry.Scale(2, 2)))
	p := drawing.NewPath(drawing.WithStroke(drawing.StrokeOptions{Color: "black", Width: 1.5, Opacity: 1})).MoveTo(1, 1).LineTo(3, 1)
	inner.Append(p)
	outer.Append(inner)
	figs := Compile(newDoc(outer))
	if len(figs) != 1 {
		t.Fatalf("expected 1 figure, got %d", len(figs))
	}
	if got := figs[0].Cmds[0].Pts[0]; got != (geometry.Pt{X: 12, Y: 22}) {
		t.Fatalf("move point %+v", got)
	}
	if got := figs[0].Cmds[1].Pts[0]; got != (geometry.Pt{X: 16, Y: 22}) {
		t.Fatalf("line point %+v", got)
	}
	if figs[0].Stroke.Width != 3 {
		t.Fatalf("stroke width must scale, got %g", figs[0].Stroke.Width)
	}
	if p.Options().Stroke.Width != 1.5 {
		t.Fatalf("compile must not modify element options")
	}
}

func TestCompileCircle(t *testing.T) {
	c := drawing.NewCircle(geometry.NewCircle(geometry.NewPoint(50, 50), 10)).Fill("blue", 1)
	figs := Compile(newDoc(c, drawing.NewCircle(nil).Fill("red", 1)))
	if len(figs) != 1 {
		t.Fatalf("zero radius circle must be skipped, got %d figures", len(figs))
	}
	if got := ops(figs[0].Cmds); got != "MCCCCZ" {
		t.Fatalf("unexpected circle commands %q", got)
	}
	// every curve end point lies on the circle
	for _, cmd := range figs[0].Cmds[1:5] {
		end := cmd.Pts[2]
		if d := math.Hypot(end.X-50, end.Y-50); math.Abs(d-10) > 1e-9 {
			t.Fatalf("end point %+v off circle (%g)", end, d)
		}
	}
}

func TestCompileMultiPathAndText(t *testing.T) {
	mp := drawing.NewMultiPath().MoveTo(0, 0).LineTo(10, 0).MoveTo(0, 5).LineTo(10, 5)
	mp.Stroke("gray", 1, 1)
	label := drawing.NewText("one\ntwo")
	label.Origin().Move(5, 50)
	figs := Compile(newDoc(mp, label))
	if len(figs) != 2 {
		t.Fatalf("expected 2 figures, got %d", len(figs))
	}
	if got := ops(figs[0].Cmds); got != "MLML" {
		t.Fatalf("multipath commands %q", got)
	}
	l := figs[1].Label
	if l == nil || len(l.Lines) != 2 || len(l.Baselines) != 2 {
		t.Fatalf("expected two label lines, got %+v", l)
	}
	if l.Baselines[0].X != 5 || l.Baselines[0].Y <= 50 || l.Baselines[1].Y <= l.Baselines[0].Y {
		t.Fatalf("unexpected baselines %+v", l.Baselines)
	}
	if figs[1].Fill == nil || figs[1].Fill.Color != "black" {
		t.Fatalf("labels default to black fill")
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string][4]uint8{
		"#f00":      {255, 0, 0, 255},
		"#00ff0080": {0, 255, 0, 128},
		"SteelBlue": {70, 130, 180, 255},
		"none":      {0, 0, 0, 0},
	}
	for in, want := range cases {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got := [4]uint8{c.R, c.G, c.B, c.A}; got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg", "notacolor"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if c, ok := paintColor("red", 0.5); !ok || c.A != 128 {
		t.Fatalf("opacity not applied: %+v", c)
	}
	if _, ok := paintColor("red", 0); ok {
		t.Fatalf("zero opacity paints nothing")
	}
}
