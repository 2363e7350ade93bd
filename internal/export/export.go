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
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "chartdraw/internal/log"
	"chartdraw/internal/scene"
)

// Format is an output file format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Options bundles the per-format options used by Write and ExportFile.
type Options struct {
	SVG SVGOptions
	PNG PNGOptions
	PDF PDFOptions
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Format(ext) {
	case FormatSVG, FormatPNG, FormatPDF:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want svg, png or pdf)", ext)
	}
}

// Write renders doc in the given format.
func Write(w io.Writer, format Format, doc *scene.Document, opt Options) error {
	switch format {
	case FormatSVG:
		return ExportSVG(w, doc, opt.SVG)
	case FormatPNG:
		return ExportPNG(w, doc, opt.PNG)
	case FormatPDF:
		return ExportPDF(w, doc, opt.PDF)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportFile renders doc to path, choosing the format by extension.
// The parent directory is created if needed.
func ExportFile(path string, doc *scene.Document, opt Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	l := applog.WithOperation(applog.WithComponent("export"), string(format)).With(slog.String("scene", doc.ID))
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", format, err)
	}
	if err := Write(f, format, doc, opt); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		l.Error("export failed", slog.String("path", path), slog.Any("err", err))
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", format, err)
	}
	l.Info("exported", slog.String("path", path), slog.Duration("took", time.Since(start)))
	return nil
}
