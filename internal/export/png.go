/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"chartdraw/internal/drawing"
	"chartdraw/internal/geometry"
	"chartdraw/internal/scene"
	"chartdraw/internal/textlayout"
)

// PNGOptions controls raster export behavior.
// - Scale: output pixels per document unit (default 1)
// - Fonts: provider for label faces; defaults to drawing.FontProvider
type PNGOptions struct {
	Scale float64
	Fonts textlayout.Provider
}

// Rasterize paints doc into a new RGBA image.
func Rasterize(doc *scene.Document, opt PNGOptions) (*image.RGBA, error) {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(doc.Width * scale))
	h := int(math.Ceil(doc.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas %gx%g", doc.Width, doc.Height)
	}
	fonts := opt.Fonts
	if fonts == nil {
		fonts = drawing.FontProvider
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if c, ok := paintColor(doc.Background, 1); ok {
		draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	}

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	dasher := rasterx.NewDasher(w, h, scanner)
	view := geometry.Scale(scale, scale)

	for _, f := range Compile(doc) {
		if f.Label != nil {
			drawLabel(img, f, fonts, scale)
			continue
		}
		if c, ok := fillColor(f.Fill); ok {
			filler.Clear()
			trace(filler, f.Cmds, view)
			scanner.SetColor(c)
			filler.Draw()
		}
		if s := f.Stroke; s != nil {
			if c, ok := paintColor(s.Color, s.Opacity); ok {
				dasher.Clear()
				dasher.SetStroke(toFixed(s.Width*scale), toFixed(4), capFunc(s.LineCap), capFunc(s.LineCap),
					rasterx.FlatGap, joinMode(s.LineJoin), nil, 0)
				trace(dasher, f.Cmds, view)
				scanner.SetColor(c)
				dasher.Draw()
			}
		}
	}
	return img, nil
}

// ExportPNG rasterizes doc and encodes it as PNG.
func ExportPNG(w io.Writer, doc *scene.Document, opt PNGOptions) error {
	img, err := Rasterize(doc, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// adder is the subset of rasterx.Adder used for tracing paths.
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

func trace(a adder, cmds []Command, m geometry.Matrix) {
	open := false
	for _, c := range cmds {
		switch c.Op {
		case OpMove:
			if open {
				a.Stop(false)
			}
			a.Start(toPoint(m.Apply(c.Pts[0])))
			open = true
		case OpLine:
			a.Line(toPoint(m.Apply(c.Pts[0])))
		case OpCurve:
			a.CubeBezier(toPoint(m.Apply(c.Pts[0])), toPoint(m.Apply(c.Pts[1])), toPoint(m.Apply(c.Pts[2])))
		case OpClose:
			if open {
				a.Stop(true)
				open = false
			}
		}
	}
	if open {
		a.Stop(false)
	}
}

func drawLabel(img *image.RGBA, f Figure, fonts textlayout.Provider, scale float64) {
	c, ok := fillColor(f.Fill)
	if !ok {
		return
	}
	spec := f.Label.Font
	spec.SizePt *= scale
	face, _ := fonts.Resolve(spec)
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Color(c)), Face: face}
	for i, line := range f.Label.Lines {
		p := f.Label.Baselines[i]
		d.Dot = toPoint(geometry.Pt{X: p.X * scale, Y: p.Y * scale})
		d.DrawString(line)
	}
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func toPoint(p geometry.Pt) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}

func capFunc(s string) rasterx.CapFunc {
	switch s {
	case drawing.CapRound:
		return rasterx.RoundCap
	case drawing.CapSquare:
		return rasterx.SquareCap
	default:
		return rasterx.ButtCap
	}
}

func joinMode(s string) rasterx.JoinMode {
	switch s {
	case drawing.JoinRound:
		return rasterx.Round
	case drawing.JoinBevel:
		return rasterx.Bevel
	default:
		return rasterx.Miter
	}
}
