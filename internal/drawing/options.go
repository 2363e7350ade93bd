/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"sort"

	"chartdraw/internal/geometry"
)

// Styles and the per-element options bag.

// Line caps and joins understood by the exporters.
const (
	CapButt   = "butt"
	CapRound  = "round"
	CapSquare = "square"

	JoinMiter = "miter"
	JoinRound = "round"
	JoinBevel = "bevel"
)

// FillOptions describes the interior paint. Color is any CSS color name or hex value.
type FillOptions struct {
	Color   string
	Opacity float64
}

// StrokeOptions describes the outline paint.
type StrokeOptions struct {
	Color    string
	Width    float64
	Opacity  float64
	LineCap  string
	LineJoin string
}

// Options is the options bag shared by all elements. A nil Fill or Stroke
// means the element is not filled or stroked.
type Options struct {
	Fill      *FillOptions
	Stroke    *StrokeOptions
	Visible   bool
	Closed    bool
	Font      string
	MaxWidth  float64
	Transform *geometry.Matrix

	extra map[string]any
}

func defaultOptions() Options { return Options{Visible: true} }

// Get returns a caller-defined option.
func (o *Options) Get(key string) (any, bool) {
	v, ok := o.extra[key]
	return v, ok
}

// Keys lists the caller-defined option keys in sorted order.
func (o *Options) Keys() []string {
	keys := make([]string, 0, len(o.extra))
	for k := range o.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Options) set(key string, v any) {
	if o.extra == nil {
		o.extra = make(map[string]any)
	}
	o.extra[key] = v
}

// StrokeWidth returns the stroke width, or 0 when there is no stroke.
func (o *Options) StrokeWidth() float64 {
	if o.Stroke == nil {
		return 0
	}
	return o.Stroke.Width
}

// Matrix returns the transform option, or the identity.
func (o *Options) Matrix() geometry.Matrix {
	if o.Transform == nil {
		return geometry.Identity
	}
	return *o.Transform
}

// Option configures an element at construction time.
type Option func(*Options)

func WithFill(color string, opacity float64) Option {
	return func(o *Options) { o.Fill = &FillOptions{Color: color, Opacity: opacity} }
}

func WithStroke(s StrokeOptions) Option {
	return func(o *Options) { o.Stroke = &s }
}

func WithVisible(v bool) Option {
	return func(o *Options) { o.Visible = v }
}

func WithClosed(v bool) Option {
	return func(o *Options) { o.Closed = v }
}

// WithFont sets a CSS-like font shorthand, e.g. "bold 14px Arial".
func WithFont(font string) Option {
	return func(o *Options) { o.Font = font }
}

// WithMaxWidth wraps text lines longer than w.
func WithMaxWidth(w float64) Option {
	return func(o *Options) { o.MaxWidth = w }
}

func WithTransform(m geometry.Matrix) Option {
	return func(o *Options) { o.Transform = &m }
}

// WithOption stores an arbitrary caller-defined option.
func WithOption(key string, value any) Option {
	return func(o *Options) { o.set(key, value) }
}
