/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chartdraw/internal/scene"
	"chartdraw/internal/version"
)

// Bundle entry names.
const (
	BundleScene    = "scene.json"
	BundleManifest = "manifest.xml"
)

// BundleOptions controls bundle export. Formats lists the renders to
// include next to the scene document; empty means svg, png and pdf.
type BundleOptions struct {
	Formats []Format
	Render  Options
}

// ExportBundle packages the scene document and its renders into a ZIP
// archive with a small XML manifest.
func ExportBundle(outPath string, doc *scene.Document, opt BundleOptions) error {
	if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
		outPath += ".zip"
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []Format{FormatSVG, FormatPNG, FormatPDF}
	}

	zw, f, err := createZip(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data, err := scene.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := addZipFile(zw, BundleScene, data); err != nil {
		return fmt.Errorf("zip add scene: %w", err)
	}

	var names []string
	buf := &bytes.Buffer{}
	for _, format := range formats {
		buf.Reset()
		if err := Write(buf, format, doc, opt.Render); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		name := "chart." + string(format)
		if err := addZipFile(zw, name, buf.Bytes()); err != nil {
			return fmt.Errorf("zip add %s: %w", name, err)
		}
		names = append(names, name)
	}

	manifest, err := buildManifestXML(doc, names)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, BundleManifest, []byte(manifest)); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create bundle: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func buildManifestXML(doc *scene.Document, renders []string) (string, error) {
	buf := &bytes.Buffer{}
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(buf, format, args...)
	}
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<ChartBundle generator=\"chartdraw %s\" created=\"%s\">\n", xmlEsc(version.Version), time.Now().UTC().Format(time.RFC3339))
	wf("  <Scene id=\"%s\" width=\"%g\" height=\"%g\">%s</Scene>\n", xmlEsc(doc.ID), doc.Width, doc.Height, xmlEsc(doc.Name))
	for _, r := range renders {
		wf("  <Render>%s</Render>\n", xmlEsc(r))
	}
	wf("</ChartBundle>\n")
	if werr != nil {
		return "", fmt.Errorf("build xml: %w", werr)
	}
	return buf.String(), nil
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		case '\'':
			out = append(out, "&apos;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
