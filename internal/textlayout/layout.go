/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement for chart labels.
// Measurement goes through a Provider so that tests use the deterministic
// basic font while exporters may resolve real OpenType faces.

import (
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// DefaultSize is the font size used when a spec leaves it unset.
const DefaultSize = 12

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float64
	Bold   bool
	Italic bool
}

// ParseFont reads a CSS-like font shorthand such as "bold 14px Arial".
// Unknown tokens are treated as part of the family name.
func ParseFont(s string) FontSpec {
	spec := FontSpec{SizePt: DefaultSize}
	var family []string
	for _, tok := range strings.Fields(s) {
		low := strings.ToLower(tok)
		switch {
		case low == "bold" || low == "bolder" || low == "700":
			spec.Bold = true
		case low == "italic" || low == "oblique":
			spec.Italic = true
		case low == "normal":
		case strings.HasSuffix(low, "px") || strings.HasSuffix(low, "pt"):
			if v, err := strconv.ParseFloat(low[:len(low)-2], 64); err == nil && v > 0 {
				spec.SizePt = v
				continue
			}
			family = append(family, tok)
		default:
			family = append(family, strings.Trim(tok, `"',`))
		}
	}
	spec.Family = strings.Join(family, " ")
	return spec
}

// String formats the spec back into the shorthand ParseFont accepts.
func (f FontSpec) String() string {
	var b strings.Builder
	if f.Italic {
		b.WriteString("italic ")
	}
	if f.Bold {
		b.WriteString("bold ")
	}
	size := f.SizePt
	if size <= 0 {
		size = DefaultSize
	}
	b.WriteString(strconv.FormatFloat(size, 'f', -1, 64))
	b.WriteString("px")
	if f.Family != "" {
		b.WriteString(" ")
		b.WriteString(f.Family)
	}
	return b.String()
}

// Metrics provides font metrics in pixels for the resolved face.
// Size is the pixel size the face was rasterized at; Measure scales from it
// to the requested size.
type Metrics struct {
	Ascent, Descent, LineGap float64
	Size                     float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
		Size:    float64(m.Height.Round()),
	}
}

// Box is the measured extent of a possibly multi-line text.
type Box struct {
	Lines      []string
	Width      float64
	Height     float64
	LineHeight float64
	Ascent     float64
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Layout measures s with the given font. Lines are split on '\n' and, when
// maxWidth > 0, wrapped on spaces so that no line exceeds maxWidth unless a
// single word does.
func Layout(provider Provider, spec FontSpec, s string, maxWidth float64) Box {
	if provider == nil {
		provider = BasicProvider{}
	}
	if spec.SizePt <= 0 {
		spec.SizePt = DefaultSize
	}
	face, met := provider.Resolve(spec)
	scale := 1.0
	if met.Size > 0 {
		scale = spec.SizePt / met.Size
	}
	d := &font.Drawer{Face: face}
	width := func(line string) float64 { return advance(d, line) * scale }

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		if maxWidth <= 0 {
			lines = append(lines, para)
			continue
		}
		cur := ""
		for _, word := range strings.Fields(para) {
			next := word
			if cur != "" {
				next = cur + " " + word
			}
			if cur != "" && width(next) > maxWidth {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}

	box := Box{
		Lines:      lines,
		LineHeight: (met.Ascent + met.Descent + met.LineGap) * scale,
		Ascent:     met.Ascent * scale,
	}
	for _, l := range lines {
		if w := width(l); w > box.Width {
			box.Width = w
		}
	}
	// last line has no trailing gap
	box.Height = float64(len(lines))*box.LineHeight - met.LineGap*scale
	return box
}

// Measure returns the width and height of s without wrapping.
func Measure(provider Provider, spec FontSpec, s string) (w, h float64) {
	b := Layout(provider, spec, s, 0)
	return b.Width, b.Height
}
