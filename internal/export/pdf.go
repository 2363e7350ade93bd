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
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"chartdraw/internal/drawing"
	"chartdraw/internal/scene"
	"chartdraw/internal/textlayout"
	"chartdraw/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt); one document unit maps to one point.
// Labels use the built-in core fonts so no font is embedded.
type PDFOptions struct {
	Author string
}

// ExportPDF writes doc as a single-page PDF sized to the canvas.
func ExportPDF(w io.Writer, doc *scene.Document, opt PDFOptions) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: doc.Width, Ht: doc.Height},
	})
	pdf.SetTitle(doc.Name, true)
	pdf.SetCreator("chartdraw "+version.Version, true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	if c, ok := paintColor(doc.Background, 1); ok {
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pdf.Rect(0, 0, doc.Width, doc.Height, "F")
	}

	for _, f := range Compile(doc) {
		if f.Label != nil {
			pdfLabel(pdf, f)
			continue
		}
		style := pdfPaint(pdf, f)
		if style == "" {
			continue
		}
		for _, c := range f.Cmds {
			switch c.Op {
			case OpMove:
				pdf.MoveTo(c.Pts[0].X, c.Pts[0].Y)
			case OpLine:
				pdf.LineTo(c.Pts[0].X, c.Pts[0].Y)
			case OpCurve:
				pdf.CurveBezierCubicTo(c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y, c.Pts[2].X, c.Pts[2].Y)
			case OpClose:
				pdf.ClosePath()
			}
		}
		pdf.DrawPath(style)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfPaint sets the graphics state for f and returns the DrawPath style,
// or "" when nothing would be painted.
func pdfPaint(pdf *gofpdf.Fpdf, f Figure) string {
	style := ""
	alpha := 1.0
	if c, ok := fillColor(f.Fill); ok {
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		alpha = float64(c.A) / 255
		style += "F"
	}
	if s := f.Stroke; s != nil {
		if c, ok := paintColor(s.Color, s.Opacity); ok {
			pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
			pdf.SetLineWidth(s.Width)
			pdf.SetLineCapStyle(pdfCap(s.LineCap))
			pdf.SetLineJoinStyle(pdfJoin(s.LineJoin))
			if style == "" {
				alpha = float64(c.A) / 255
			}
			style += "D"
		}
	}
	// gofpdf has a single alpha for fill and stroke
	pdf.SetAlpha(alpha, "Normal")
	return style
}

func pdfLabel(pdf *gofpdf.Fpdf, f Figure) {
	c, ok := fillColor(f.Fill)
	if !ok {
		return
	}
	family, style := coreFont(f.Label.Font)
	pdf.SetFont(family, style, f.Label.Font.SizePt)
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	pdf.SetAlpha(float64(c.A)/255, "Normal")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for i, line := range f.Label.Lines {
		p := f.Label.Baselines[i]
		pdf.Text(p.X, p.Y, tr(line))
	}
}

// coreFont maps a font spec onto one of the PDF core fonts.
func coreFont(spec textlayout.FontSpec) (family, style string) {
	fam := strings.ToLower(spec.Family)
	switch {
	case strings.Contains(fam, "mono") || strings.Contains(fam, "courier"):
		family = "Courier"
	case strings.Contains(fam, "times") || (strings.Contains(fam, "serif") && !strings.Contains(fam, "sans")):
		family = "Times"
	default:
		family = "Helvetica"
	}
	if spec.Bold {
		style += "B"
	}
	if spec.Italic {
		style += "I"
	}
	return family, style
}

func pdfCap(s string) string {
	switch s {
	case drawing.CapRound, drawing.CapSquare:
		return s
	default:
		return "butt"
	}
}

func pdfJoin(s string) string {
	switch s {
	case drawing.JoinRound, drawing.JoinBevel:
		return s
	default:
		return "miter"
	}
}
