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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
)

// Node type names used in the JSON format.
const (
	TypeGroup     = "group"
	TypeShape     = "shape"
	TypeCircle    = "circle"
	TypePath      = "path"
	TypeMultiPath = "multipath"
	TypeText      = "text"
)

type docJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Background string    `json:"background,omitempty"`
	Root       *nodeJSON `json:"root"`
}

// Opacity defaults to 1 when absent.
type fillJSON struct {
	Color   string   `json:"color"`
	Opacity *float64 `json:"opacity,omitempty"`
}

type strokeJSON struct {
	Color    string   `json:"color,omitempty"`
	Width    float64  `json:"width"`
	Opacity  *float64 `json:"opacity,omitempty"`
	LineCap  string   `json:"lineCap,omitempty"`
	LineJoin string   `json:"lineJoin,omitempty"`
}

type segmentJSON struct {
	Anchor     [2]float64  `json:"anchor"`
	ControlIn  *[2]float64 `json:"controlIn,omitempty"`
	ControlOut *[2]float64 `json:"controlOut,omitempty"`
}

type nodeJSON struct {
	Type      string         `json:"type"`
	Visible   *bool          `json:"visible,omitempty"`
	Fill      *fillJSON      `json:"fill,omitempty"`
	Stroke    *strokeJSON    `json:"stroke,omitempty"`
	Transform *[6]float64    `json:"transform,omitempty"`
	Options   map[string]any `json:"options,omitempty"`

	// group
	Children []*nodeJSON `json:"children,omitempty"`
	// circle
	Center *[2]float64 `json:"center,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	// path
	Closed   bool          `json:"closed,omitempty"`
	Segments []segmentJSON `json:"segments,omitempty"`
	// multipath
	Paths []*nodeJSON `json:"paths,omitempty"`
	// text
	Content  string      `json:"content,omitempty"`
	Origin   *[2]float64 `json:"origin,omitempty"`
	Font     string      `json:"font,omitempty"`
	MaxWidth float64     `json:"maxWidth,omitempty"`
}

// Marshal encodes doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	root := doc.Root
	if root == nil {
		root = drawing.NewGroup()
	}
	rn, err := encodeElement(root)
	if err != nil {
		return nil, err
	}
	dj := docJSON{
		ID:         doc.ID,
		Name:       doc.Name,
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
		Root:       rn,
	}
	return json.MarshalIndent(dj, "", "  ")
}

// Encode writes doc to w.
func Encode(w io.Writer, doc *Document) error {
	b, err := Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Unmarshal validates data against the scene schema and builds the drawing tree.
func Unmarshal(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var dj docJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := ValidateID(dj.ID); err != nil {
		return nil, err
	}
	if dj.Root == nil || dj.Root.Type != TypeGroup {
		return nil, fmt.Errorf("scene %s: root must be a group", dj.ID)
	}
	root, err := decodeElement(dj.Root)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", dj.ID, err)
	}
	return &Document{
		ID:         dj.ID,
		Name:       dj.Name,
		Width:      dj.Width,
		Height:     dj.Height,
		Background: dj.Background,
		Root:       root.(*drawing.Group),
	}, nil
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Unmarshal(buf.Bytes())
}

// Load reads a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Save writes a document file atomically.
func Save(path string, doc *Document) error {
	b, err := Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".scene-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write scene: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scene: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename scene: %w", err)
	}
	return nil
}

func pt2(p geometry.Pt) [2]float64 { return [2]float64{p.X, p.Y} }

func optPt2(p geometry.Pt) *[2]float64 {
	if p.IsZero() {
		return nil
	}
	v := pt2(p)
	return &v
}

func ptr(v float64) *float64 { return &v }

func opacity(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}

func newPoint(v *[2]float64) *geometry.Point {
	if v == nil {
		return geometry.NewPoint(0, 0)
	}
	return geometry.NewPoint(v[0], v[1])
}

func encodeCommon(n *nodeJSON, o *drawing.Options) {
	if !o.Visible {
		v := false
		n.Visible = &v
	}
	if o.Fill != nil {
		n.Fill = &fillJSON{Color: o.Fill.Color, Opacity: ptr(o.Fill.Opacity)}
	}
	if o.Stroke != nil {
		s := o.Stroke
		n.Stroke = &strokeJSON{Color: s.Color, Width: s.Width, Opacity: ptr(s.Opacity), LineCap: s.LineCap, LineJoin: s.LineJoin}
	}
	if m := o.Transform; m != nil {
		n.Transform = &[6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
	}
	if keys := o.Keys(); len(keys) > 0 {
		n.Options = make(map[string]any, len(keys))
		for _, k := range keys {
			n.Options[k], _ = o.Get(k)
		}
	}
}

func encodeSegments(p *drawing.Path) []segmentJSON {
	out := make([]segmentJSON, 0, len(p.Segments()))
	for _, s := range p.Segments() {
		out = append(out, segmentJSON{
			Anchor:     pt2(s.Anchor().Pt()),
			ControlIn:  optPt2(s.ControlIn().Pt()),
			ControlOut: optPt2(s.ControlOut().Pt()),
		})
	}
	return out
}

func encodeElement(e drawing.Element) (*nodeJSON, error) {
	n := &nodeJSON{}
	encodeCommon(n, e.Options())
	switch el := e.(type) {
	case *drawing.Group:
		n.Type = TypeGroup
		for _, c := range el.Children() {
			cn, err := encodeElement(c)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, cn)
		}
	case *drawing.Shape:
		n.Type = TypeShape
	case *drawing.Circle:
		n.Type = TypeCircle
		c := pt2(el.Geometry().Center().Pt())
		n.Center = &c
		n.Radius = el.Geometry().Radius()
	case *drawing.Path:
		n.Type = TypePath
		n.Closed = el.Options().Closed
		n.Segments = encodeSegments(el)
	case *drawing.MultiPath:
		n.Type = TypeMultiPath
		for _, p := range el.Paths() {
			pn, err := encodeElement(p)
			if err != nil {
				return nil, err
			}
			n.Paths = append(n.Paths, pn)
		}
	case *drawing.Text:
		n.Type = TypeText
		n.Content = el.Content()
		n.Origin = optPt2(el.Origin().Pt())
		n.Font = el.Options().Font
		n.MaxWidth = el.Options().MaxWidth
	default:
		return nil, fmt.Errorf("unsupported element %T", e)
	}
	return n, nil
}

func commonOptions(n *nodeJSON) []drawing.Option {
	var opts []drawing.Option
	if n.Visible != nil {
		opts = append(opts, drawing.WithVisible(*n.Visible))
	}
	if n.Fill != nil {
		opts = append(opts, drawing.WithFill(n.Fill.Color, opacity(n.Fill.Opacity)))
	}
	if s := n.Stroke; s != nil {
		opts = append(opts, drawing.WithStroke(drawing.StrokeOptions{
			Color: s.Color, Width: s.Width, Opacity: opacity(s.Opacity), LineCap: s.LineCap, LineJoin: s.LineJoin,
		}))
	}
	if t := n.Transform; t != nil {
		opts = append(opts, drawing.WithTransform(geometry.Matrix{A: t[0], B: t[1], C: t[2], D: t[3], E: t[4], F: t[5]}))
	}
	for k, v := range n.Options {
		opts = append(opts, drawing.WithOption(k, v))
	}
	return opts
}

func decodePath(n *nodeJSON, opts []drawing.Option) *drawing.Path {
	if n.Closed {
		opts = append(opts, drawing.WithClosed(true))
	}
	p := drawing.NewPath(opts...)
	for _, s := range n.Segments {
		anchor := s.Anchor
		p.AppendSegment(drawing.NewSegment(newPoint(&anchor), newPoint(s.ControlIn), newPoint(s.ControlOut)))
	}
	return p
}

func decodeElement(n *nodeJSON) (drawing.Element, error) {
	opts := commonOptions(n)
	switch n.Type {
	case TypeGroup:
		g := drawing.NewGroup(opts...)
		for i, cn := range n.Children {
			c, err := decodeElement(cn)
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			g.Append(c)
		}
		return g, nil
	case TypeShape:
		return drawing.NewShape(opts...), nil
	case TypeCircle:
		return drawing.NewCircle(geometry.NewCircle(newPoint(n.Center), n.Radius), opts...), nil
	case TypePath:
		return decodePath(n, opts), nil
	case TypeMultiPath:
		m := drawing.NewMultiPath(opts...)
		for _, pn := range n.Paths {
			if pn.Type != TypePath {
				return nil, fmt.Errorf("multipath may only contain paths, got %q", pn.Type)
			}
			m.AppendPath(decodePath(pn, commonOptions(pn)))
		}
		return m, nil
	case TypeText:
		if n.Font != "" {
			opts = append(opts, drawing.WithFont(n.Font))
		}
		if n.MaxWidth > 0 {
			opts = append(opts, drawing.WithMaxWidth(n.MaxWidth))
		}
		t := drawing.NewText(n.Content, opts...)
		if n.Origin != nil {
			t.Origin().Move(n.Origin[0], n.Origin[1])
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", n.Type)
	}
}
