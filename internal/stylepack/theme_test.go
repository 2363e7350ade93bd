/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stylepack

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
	"chartdraw/internal/scene"
	"chartdraw/internal/undo"
)

// barChart builds two series bars, a series line, an axis and a label.
func barChart() (*scene.Document, map[string]drawing.Element) {
	doc := scene.New("themed", 200, 100)
	bar0 := drawing.NewPath(drawing.WithOption(SeriesOption, 0)).Fill("red", 0.8)
	bar0.MoveTo(10, 90).LineTo(10, 50).LineTo(30, 50).Close()
	bar1 := drawing.NewPath(drawing.WithOption(SeriesOption, float64(1))).Fill("red", 1)
	bar1.MoveTo(40, 90).LineTo(40, 20).LineTo(60, 20).Close()
	line := drawing.NewPath(drawing.WithOption(SeriesOption, int64(9))).Stroke("black", 2, 1)
	line.MoveTo(0, 0).LineTo(100, 50)
	axis := drawing.NewPath().Stroke("black", 3, 1)
	axis.MoveTo(0, 95).LineTo(200, 95)
	dot := drawing.NewCircle(geometry.NewCircle(geometry.NewPoint(5, 5), 2))
	label := drawing.NewText("Revenue")
	inner := drawing.NewGroup()
	inner.Append(line, label)
	doc.Root.Append(bar0, bar1, axis, dot, inner)
	return doc, map[string]drawing.Element{"bar0": bar0, "bar1": bar1, "line": line, "axis": axis, "dot": dot, "label": label}
}

func TestApplyBuiltinTheme(t *testing.T) {
	doc, els := barChart()
	th, ok := Builtin("default")
	if !ok {
		t.Fatal("default theme missing")
	}
	if n := Apply(doc, th); n != 5 {
		t.Fatalf("changed %d elements, want 5", n)
	}

	if f := els["bar0"].Options().Fill; f.Color != th.Palette[0] || f.Opacity != 0.8 {
		t.Fatalf("bar0 fill %+v", f)
	}
	if f := els["bar1"].Options().Fill; f.Color != th.Palette[1] {
		t.Fatalf("bar1 fill %+v", f)
	}
	if s := els["line"].Options().Stroke; s.Color != th.Palette[9%len(th.Palette)] || s.Width != 2 {
		t.Fatalf("series line stroke %+v", s)
	}
	if s := els["axis"].Options().Stroke; s.Color != th.Stroke.Color || s.Width != th.Stroke.Width {
		t.Fatalf("axis stroke %+v", s)
	}
	if els["dot"].Options().Fill != nil || els["dot"].Options().Stroke != nil {
		t.Fatal("unstyled element must stay unstyled")
	}
	lo := els["label"].Options()
	if lo.Font != th.Text.Font || lo.Fill == nil || lo.Fill.Color != th.Text.Color {
		t.Fatalf("label options %+v", lo)
	}

	// applying the same theme again is a no-op
	if n := Apply(doc, th); n != 0 {
		t.Fatalf("second apply changed %d elements", n)
	}
}

func TestApplyIsOneUndoStep(t *testing.T) {
	doc, _ := barChart()
	h, err := scene.NewHistory(doc, undo.NewManager(undo.Config{MinInterval: time.Hour}))
	if err != nil {
		t.Fatal(err)
	}
	dark, _ := Builtin("dark")
	Apply(doc, dark)
	if doc.Background != dark.Background {
		t.Fatalf("background %q", doc.Background)
	}
	if u, _ := h.Depth(); u != 1 {
		t.Fatalf("undo depth %d, want 1", u)
	}
	if ok, err := h.Undo(); !ok || err != nil {
		t.Fatalf("undo: %v %v", ok, err)
	}
	// undo replaces the tree; look up the restored bar by position
	restored := doc.Root.Children()[0]
	if restored.Options().Fill.Color != "red" {
		t.Fatalf("undo did not restore the fill: %+v", restored.Options().Fill)
	}
}

func TestThemeValidate(t *testing.T) {
	cases := map[string]Theme{
		"no name":     {Palette: []string{"red"}},
		"bad name":    {Name: "../x", Palette: []string{"red"}},
		"no palette":  {Name: "x"},
		"bad color":   {Name: "x", Palette: []string{"reddish"}},
		"bad text":    {Name: "x", Palette: []string{"red"}, Text: TextStyle{Color: "#12"}},
		"neg. stroke": {Name: "x", Palette: []string{"red"}, Stroke: StrokeStyle{Width: -1}},
	}
	for name, th := range cases {
		if err := th.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	for _, n := range BuiltinNames() {
		th, _ := Builtin(n)
		if err := th.Validate(); err != nil {
			t.Errorf("builtin %s: %v", n, err)
		}
	}
	if _, err := Parse([]byte("name: x\npalette: [red]\nshade: 3\n")); err == nil {
		t.Error("unknown fields must be rejected")
	}
}

func TestLibraryLayers(t *testing.T) {
	project, user := t.TempDir(), t.TempDir()
	if _, err := Save(user, Theme{Name: "corporate", Palette: []string{"#003366"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(user, Theme{Name: "dark", Palette: []string{"#111111"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(project, Theme{Name: "corporate", Palette: []string{"#ff0000"}}); err != nil {
		t.Fatal(err)
	}
	lib := Library{Dirs: []string{project, user}}

	got, err := lib.Resolve("corporate")
	if err != nil || got.Palette[0] != "#ff0000" {
		t.Fatalf("project layer should win: %+v %v", got, err)
	}
	if got, _ := lib.Resolve("dark"); got.Palette[0] != "#111111" {
		t.Fatalf("file theme should shadow the builtin: %+v", got)
	}
	if got, _ := lib.Resolve("mono"); got.Name != "mono" {
		t.Fatalf("builtin fallback: %+v", got)
	}
	if _, err := lib.Resolve("nope"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if want := []string{"default", "mono", "dark", "corporate"}; !reflect.DeepEqual(lib.Names(), want) {
		t.Fatalf("names %v, want %v", lib.Names(), want)
	}

	if err := os.WriteFile(filepath.Join(user, "broken"+Ext), []byte("name: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Resolve("broken"); err == nil {
		t.Fatal("invalid theme file must fail to resolve")
	}
}
