/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack provides chart themes and style packs. A theme is a
// YAML file naming a palette, text and stroke colors; a style pack is a ZIP
// archive of theme files that can be shared and installed.
package stylepack

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"chartdraw/internal/drawing"
	"chartdraw/internal/export"
	"chartdraw/internal/scene"
)

// SeriesOption is the element option holding a data series index. Elements
// carrying it take their color from the theme palette.
const SeriesOption = "series"

// Ext is the file extension of theme files.
const Ext = ".yaml"

// ErrUnknownTheme is returned when no layer defines the requested theme.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme is a named set of chart colors and fonts.
type Theme struct {
	Name       string      `yaml:"name"`
	Background string      `yaml:"background,omitempty"`
	Palette    []string    `yaml:"palette"`
	Text       TextStyle   `yaml:"text,omitempty"`
	Stroke     StrokeStyle `yaml:"stroke,omitempty"`
}

// TextStyle applies to every Text element.
type TextStyle struct {
	Font  string `yaml:"font,omitempty"`
	Color string `yaml:"color,omitempty"`
}

// StrokeStyle applies to stroked elements that are not part of a series,
// such as axes and grid lines.
type StrokeStyle struct {
	Color string  `yaml:"color,omitempty"`
	Width float64 `yaml:"width,omitempty"`
}

var builtins = map[string]Theme{
	"default": {
		Name:    "default",
		Palette: []string{"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948", "#b07aa1", "#ff9da7"},
		Text:    TextStyle{Font: "12px sans-serif", Color: "#333333"},
		Stroke:  StrokeStyle{Color: "#999999", Width: 1},
	},
	"mono": {
		Name:    "mono",
		Palette: []string{"#222222", "#555555", "#888888", "#bbbbbb"},
		Text:    TextStyle{Color: "#000000"},
		Stroke:  StrokeStyle{Color: "#000000"},
	},
	"dark": {
		Name:       "dark",
		Background: "#1e1e1e",
		Palette:    []string{"#8ab4f8", "#f6aea9", "#fdd663", "#81c995", "#c58af9", "#78d9ec"},
		Text:       TextStyle{Color: "#e8eaed"},
		Stroke:     StrokeStyle{Color: "#5f6368"},
	},
}

// BuiltinNames lists the themes compiled into the binary in stable order.
func BuiltinNames() []string { return []string{"default", "mono", "dark"} }

// Builtin returns a builtin theme by name.
func Builtin(name string) (Theme, bool) {
	t, ok := builtins[name]
	if !ok {
		return Theme{}, false
	}
	t.Palette = append([]string(nil), t.Palette...)
	return t, true
}

// Validate checks that the theme is named and all colors parse.
func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("theme name is required")
	}
	if strings.ContainsAny(t.Name, `/\`) || t.Name == "." || t.Name == ".." {
		return fmt.Errorf("theme name %q is not a valid file name", t.Name)
	}
	if len(t.Palette) == 0 {
		return fmt.Errorf("theme %s: palette is empty", t.Name)
	}
	colors := append([]string{t.Background, t.Text.Color, t.Stroke.Color}, t.Palette...)
	for _, c := range colors {
		if c == "" {
			continue
		}
		if _, err := export.ParseColor(c); err != nil {
			return fmt.Errorf("theme %s: %w", t.Name, err)
		}
	}
	if t.Stroke.Width < 0 {
		return fmt.Errorf("theme %s: negative stroke width", t.Name)
	}
	return nil
}

// Parse decodes and validates a theme document.
func Parse(data []byte) (Theme, error) {
	var t Theme
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Theme{}, fmt.Errorf("parse theme: %w", err)
	}
	return t, t.Validate()
}

// Load reads a theme file.
func Load(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return Theme{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Save writes t to dir/<name>.yaml.
func Save(dir string, t Theme) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure theme dir: %w", err)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode theme: %w", err)
	}
	path := filepath.Join(dir, t.Name+Ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write theme: %w", err)
	}
	return path, nil
}

// Library resolves themes from directories layered over the builtins.
// Earlier directories take precedence.
type Library struct {
	Dirs []string
}

// Resolve finds the theme by name: the first directory holding
// <name>.yaml wins, then the builtins.
func (l Library) Resolve(name string) (Theme, error) {
	for _, dir := range l.Dirs {
		path := filepath.Join(dir, name+Ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	if t, ok := Builtin(name); ok {
		return t, nil
	}
	return Theme{}, fmt.Errorf("%w %q", ErrUnknownTheme, name)
}

// Names lists every resolvable theme: builtins first, then the remaining
// file themes sorted by name.
func (l Library) Names() []string {
	seen := map[string]bool{}
	out := BuiltinNames()
	for _, n := range out {
		seen[n] = true
	}
	var extra []string
	for _, dir := range l.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			n, ok := strings.CutSuffix(e.Name(), Ext)
			if !ok || e.IsDir() || seen[n] {
				continue
			}
			seen[n] = true
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Apply restyles doc with t and returns how many elements changed.
// Elements with a SeriesOption take palette colors: the fill when they are
// filled, otherwise the stroke. Other stroked elements take the theme
// stroke, and Text elements take the text style.
func Apply(doc *scene.Document, t Theme) int {
	if t.Background != "" {
		doc.Background = t.Background
	}
	if doc.Root == nil {
		return 0
	}
	changed := 0
	doc.Root.Traverse(func(e drawing.Element) {
		if applyElement(e, t) {
			changed++
		}
	})
	return changed
}

func applyElement(e drawing.Element, t Theme) bool {
	o := e.Options()
	if txt, ok := e.(*drawing.Text); ok {
		done := false
		if t.Text.Font != "" && o.Font != t.Text.Font {
			txt.SetFont(t.Text.Font)
			done = true
		}
		if t.Text.Color != "" && (o.Fill == nil || o.Fill.Color != t.Text.Color) {
			txt.Fill(t.Text.Color, fillOpacity(o))
			done = true
		}
		return done
	}

	if idx, ok := seriesIndex(o); ok {
		c := t.Palette[idx%len(t.Palette)]
		switch {
		case o.Fill != nil:
			if o.Fill.Color == c {
				return false
			}
			return setFill(e, c, o.Fill.Opacity)
		case o.Stroke != nil:
			if o.Stroke.Color == c {
				return false
			}
			return setStroke(e, c, o.Stroke.Width, o.Stroke.Opacity)
		}
		return false
	}

	if s := o.Stroke; s != nil && t.Stroke.Color != "" {
		w := s.Width
		if t.Stroke.Width > 0 {
			w = t.Stroke.Width
		}
		if s.Color == t.Stroke.Color && s.Width == w {
			return false
		}
		return setStroke(e, t.Stroke.Color, w, s.Opacity)
	}
	return false
}

func seriesIndex(o *drawing.Options) (int, bool) {
	v, ok := o.Get(SeriesOption)
	if !ok {
		return 0, false
	}
	var i int
	switch n := v.(type) {
	case int:
		i = n
	case int64:
		i = int(n)
	case float64:
		i = int(n)
	default:
		return 0, false
	}
	if i < 0 {
		return 0, false
	}
	return i, true
}

func fillOpacity(o *drawing.Options) float64 {
	if o.Fill == nil {
		return 1
	}
	return o.Fill.Opacity
}

func setFill(e drawing.Element, color string, opacity float64) bool {
	switch el := e.(type) {
	case *drawing.Shape:
		el.Fill(color, opacity)
	case *drawing.Circle:
		el.Fill(color, opacity)
	case *drawing.Path:
		el.Fill(color, opacity)
	case *drawing.MultiPath:
		el.Fill(color, opacity)
	default:
		return false
	}
	return true
}

func setStroke(e drawing.Element, color string, width, opacity float64) bool {
	switch el := e.(type) {
	case *drawing.Shape:
		el.Stroke(color, width, opacity)
	case *drawing.Circle:
		el.Stroke(color, width, opacity)
	case *drawing.Path:
		el.Stroke(color, width, opacity)
	case *drawing.MultiPath:
		el.Stroke(color, width, opacity)
	default:
		return false
	}
	return true
}
