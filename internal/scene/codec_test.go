/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
)

// sampleDocument builds a small bar-and-line chart touching every node type.
func sampleDocument() *Document {
	doc := New("Quarterly revenue", 400, 300)
	doc.Background = "white"

	bars := drawing.NewGroup(drawing.WithOption("series", "revenue"))
	for i, h := range []float64{120, 80, 160} {
		x := 40 + float64(i)*60
		bar := drawing.NewPath().MoveTo(x, 250).LineTo(x+40, 250).LineTo(x+40, 250-h).LineTo(x, 250-h).Close()
		bar.Fill("#3366cc", 0.9)
		bars.Append(bar)
	}

	line := drawing.NewPath(drawing.WithStroke(drawing.StrokeOptions{Color: "red", Width: 2, Opacity: 1, LineJoin: drawing.JoinRound}))
	line.MoveTo(60, 130).CurveTo(geometry.Pt{X: 90, Y: 100}, geometry.Pt{X: 100, Y: 180}, geometry.Pt{X: 120, Y: 170})

	grid := drawing.NewMultiPath().MoveTo(30, 250).LineTo(380, 250).MoveTo(30, 20).LineTo(30, 250)
	grid.Stroke("#999", 1, 1)

	marker := drawing.NewCircle(geometry.NewCircle(geometry.NewPoint(120, 170), 4)).Fill("red", 1)
	legend := drawing.NewText("Revenue <EUR>", drawing.WithFont("bold 12px sans-serif"))
	legend.Origin().Move(300, 20)

	hidden := drawing.NewShape(drawing.WithVisible(false))
	overlay := drawing.NewGroup(drawing.WithTransform(geometry.Translate(5, 5)))
	overlay.Append(marker, legend)

	doc.Root.Append(bars, line, grid, overlay, hidden)
	return doc
}

func TestMarshalUnmarshalPreservesTree(t *testing.T) {
	doc := sampleDocument()
	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != doc.ID || got.Name != doc.Name || got.Width != 400 || got.Background != "white" {
		t.Fatalf("header mismatch: %+v", got)
	}
	again, err := Marshal(got)
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("encoding is not stable:\n%s\n---\n%s", data, again)
	}

	children := got.Root.Children()
	if len(children) != 5 {
		t.Fatalf("expected 5 top-level children, got %d", len(children))
	}
	bars := children[0].(*drawing.Group)
	if v, _ := bars.Options().Get("series"); v != "revenue" || len(bars.Children()) != 3 {
		t.Fatalf("bars group not restored")
	}
	bar := bars.Children()[0].(*drawing.Path)
	if !bar.Options().Closed || bar.Options().Fill.Color != "#3366cc" || len(bar.Segments()) != 4 {
		t.Fatalf("bar not restored: %+v", bar.Options())
	}
	line := children[1].(*drawing.Path)
	if line.Segments()[1].AbsControlIn() != (geometry.Pt{X: 100, Y: 180}) || line.Options().Stroke.LineJoin != drawing.JoinRound {
		t.Fatalf("curve not restored")
	}
	if mp := children[2].(*drawing.MultiPath); len(mp.Paths()) != 2 || mp.Paths()[0].Observer() != drawing.Observer(mp) {
		t.Fatalf("multipath not restored")
	}
	overlay := children[3].(*drawing.Group)
	if overlay.Options().Matrix() != geometry.Translate(5, 5) {
		t.Fatalf("transform not restored")
	}
	if txt := overlay.Children()[1].(*drawing.Text); txt.Content() != "Revenue <EUR>" || txt.Origin().Pt() != (geometry.Pt{X: 300, Y: 20}) {
		t.Fatalf("text not restored")
	}
	if children[4].Options().Visible {
		t.Fatalf("visibility not restored")
	}

	b1, _ := doc.Bounds()
	b2, _ := got.Bounds()
	if b1 != b2 {
		t.Fatalf("bounds differ after round trip: %+v vs %+v", b1, b2)
	}
}

func TestMarshalConformsToSchema(t *testing.T) {
	data, err := Marshal(sampleDocument())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(Schema()), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("document does not conform to schema")
	}
}

func TestUnmarshalRejectsInvalidDocuments(t *testing.T) {
	id := NewID()
	cases := map[string]string{
		"missing root": `{"id":"` + id + `","width":10,"height":10}`,
		"bad type":     `{"id":"` + id + `","width":10,"height":10,"root":{"type":"triangle"}}`,
		"bad opacity":  `{"id":"` + id + `","width":10,"height":10,"root":{"type":"group","fill":{"color":"red","opacity":2}}}`,
		"bad id":       `{"id":"chart_1","width":10,"height":10,"root":{"type":"group"}}`,
		"zero width":   `{"id":"` + id + `","width":0,"height":10,"root":{"type":"group"}}`,
	}
	for name, in := range cases {
		_, err := Unmarshal([]byte(in))
		var ve *ValidationError
		if !errors.As(err, &ve) || len(ve.Problems) == 0 {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	_, err := Unmarshal([]byte(`{"id":"` + id + `","width":10,"height":10,"root":{"type":"circle"}}`))
	if err == nil || !strings.Contains(err.Error(), "root must be a group") {
		t.Fatalf("expected root type error, got %v", err)
	}
	_, err = Unmarshal([]byte(`{"id":"` + id + `","width":10,"height":10,"root":{"type":"group","children":[{"type":"multipath","paths":[{"type":"text"}]}]}}`))
	if err == nil || !strings.Contains(err.Error(), "child 0") {
		t.Fatalf("expected nested error, got %v", err)
	}
}

func TestIDs(t *testing.T) {
	id := NewID()
	if !strings.HasPrefix(id, IDPrefix+"_") {
		t.Fatalf("unexpected id %q", id)
	}
	if err := ValidateID(id); err != nil {
		t.Fatalf("fresh id invalid: %v", err)
	}
	if err := ValidateID("nope"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if NewID() == id {
		t.Fatalf("ids must be unique")
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.json")
	doc := sampleDocument()
	if err := Save(path, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != doc.ID || len(got.Root.Children()) != 5 {
		t.Fatalf("unexpected loaded doc: %+v", got)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, got); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
