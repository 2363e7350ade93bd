/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"

	"chartdraw/internal/drawing"
	"chartdraw/internal/scene"
)

// SVGOptions controls SVG export behavior.
// Scale multiplies the width and height attributes; the viewBox stays in
// document units.
type SVGOptions struct {
	Scale float64
}

// ExportSVG writes doc as a standalone SVG 1.1 document.
func ExportSVG(w io.Writer, doc *scene.Document, opt SVGOptions) error {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	bw := bufio.NewWriter(w)
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n",
		doc.Width*scale, doc.Height*scale, doc.Width, doc.Height)
	if doc.Name != "" {
		wf("  <title>%s</title>\n", escText(doc.Name))
	}
	if c, ok := paintColor(doc.Background, 1); ok {
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"%s/>\n", doc.Width, doc.Height, hexColor(c), opacityAttr("fill-opacity", c.A))
	}

	for _, f := range Compile(doc) {
		if f.Label != nil {
			for i, line := range f.Label.Lines {
				if line == "" {
					continue
				}
				p := f.Label.Baselines[i]
				wf("  <text x=\"%g\" y=\"%g\"%s%s>%s</text>\n", p.X, p.Y, fontAttrs(f), paintAttrs(f), escText(line))
			}
			continue
		}
		wf("  <path d=\"%s\"%s/>\n", pathData(f.Cmds), paintAttrs(f))
	}

	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func pathData(cmds []Command) string {
	var b strings.Builder
	for i, c := range cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(c.Op))
		switch c.Op {
		case OpMove, OpLine:
			fmt.Fprintf(&b, "%g %g", c.Pts[0].X, c.Pts[0].Y)
		case OpCurve:
			fmt.Fprintf(&b, "%g %g %g %g %g %g", c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y, c.Pts[2].X, c.Pts[2].Y)
		}
	}
	return b.String()
}

func paintAttrs(f Figure) string {
	var b strings.Builder
	if c, ok := fillColor(f.Fill); ok {
		fmt.Fprintf(&b, " fill=\"%s\"%s", hexColor(c), opacityAttr("fill-opacity", c.A))
	} else {
		b.WriteString(" fill=\"none\"")
	}
	if s := f.Stroke; s != nil {
		if c, ok := paintColor(s.Color, s.Opacity); ok {
			fmt.Fprintf(&b, " stroke=\"%s\" stroke-width=\"%g\"%s", hexColor(c), s.Width, opacityAttr("stroke-opacity", c.A))
			if s.LineCap != "" && s.LineCap != drawing.CapButt {
				fmt.Fprintf(&b, " stroke-linecap=\"%s\"", escAttr(s.LineCap))
			}
			if s.LineJoin != "" && s.LineJoin != drawing.JoinMiter {
				fmt.Fprintf(&b, " stroke-linejoin=\"%s\"", escAttr(s.LineJoin))
			}
		}
	}
	return b.String()
}

func fontAttrs(f Figure) string {
	spec := f.Label.Font
	family := spec.Family
	if family == "" {
		family = "sans-serif"
	}
	s := fmt.Sprintf(" font-family=\"%s\" font-size=\"%g\"", escAttr(family), spec.SizePt)
	if spec.Bold {
		s += " font-weight=\"bold\""
	}
	if spec.Italic {
		s += " font-style=\"italic\""
	}
	return s
}

func fillColor(fill *drawing.FillOptions) (c color.NRGBA, ok bool) {
	if fill == nil {
		return c, false
	}
	return paintColor(fill.Color, fill.Opacity)
}

func opacityAttr(name string, a uint8) string {
	if a == 0xff {
		return ""
	}
	return fmt.Sprintf(" %s=\"%.3g\"", name, float64(a)/255)
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
