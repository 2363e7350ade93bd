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
	"path/filepath"
	"strings"

	"chartdraw/internal/scene"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export of one document to several formats.
//
// Path semantics:
//   - OutDir defaults to the preset name.
//   - Files are named <BaseName>.<format>; BaseName defaults to the scene ID.
//   - Format "zip" writes a bundle (see ExportBundle).
type BatchOptions struct {
	Preset   PresetName
	Formats  []string // allowed: svg, png, pdf, zip; empty means preset defaults
	Scale    float64  // when > 0 overrides the preset raster scale
	OutDir   string
	BaseName string
}

// BatchExport renders doc in every format of the preset and returns the
// written paths.
func BatchExport(doc *scene.Document, opt BatchOptions) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	out := opt.OutDir
	if out == "" {
		out = string(opt.Preset)
	}
	base := opt.BaseName
	if base == "" {
		base = doc.ID
	}
	ro := Options{PNG: PNGOptions{Scale: presetScale(opt.Preset)}}
	if opt.Scale > 0 {
		ro.PNG.Scale = opt.Scale
	}

	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		path := filepath.Join(out, base+"."+f)
		switch f {
		case "zip":
			if err := ExportBundle(path, doc, BundleOptions{Render: ro}); err != nil {
				return written, fmt.Errorf("zip: %w", err)
			}
		case string(FormatSVG), string(FormatPNG), string(FormatPDF):
			if err := ExportFile(path, doc, ro); err != nil {
				return written, fmt.Errorf("%s: %w", f, err)
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		written = append(written, path)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"svg", "png"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"svg"}
	}
}

// presetScale is the raster scale; print targets roughly 300 dpi from 72 dpi units.
func presetScale(p PresetName) float64 {
	switch p {
	case PresetWeb:
		return 2
	case PresetPrint:
		return 300.0 / 72.0
	default:
		return 1
	}
}
