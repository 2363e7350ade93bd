/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chartdraw/internal/drawing"
	"chartdraw/internal/export"
	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
)

func cmdInit(c *cli, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	size := fs.String("size", fmt.Sprintf("%dx%d", scene.DefaultWidth, scene.DefaultHeight), "canvas size WxH")
	rest, err := parse(fs, args, 1, 2)
	if err != nil {
		return err
	}
	w, h, err := parseSize(*size)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	path := rest[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(rest) > 1 {
		name = rest[1]
	}
	doc := scene.New(name, w, h)
	if err := scene.Save(path, doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "created %s (%s)\n", path, doc.ID)
	return nil
}

func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width %q", ws)
	}
	h, err := strconv.ParseFloat(hs, 64)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height %q", hs)
	}
	return w, h, nil
}

func cmdValidate(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	doc, err := scene.Load(args[0])
	if err != nil {
		return err
	}
	n := 0
	doc.Root.Traverse(func(drawing.Element) { n++ })
	_, _ = fmt.Fprintf(c.stdout, "ok %s: %d elements\n", doc.ID, n)
	return nil
}

func cmdBounds(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	doc, _, err := c.loadScene(args[0])
	if err != nil {
		return err
	}
	r, ok := doc.Bounds()
	if !ok {
		_, _ = fmt.Fprintln(c.stdout, "empty")
		return nil
	}
	_, _ = fmt.Fprintf(c.stdout, "%g %g %g %g (%gx%g)\n", r.P0.X, r.P0.Y, r.P1.X, r.P1.Y, r.Width(), r.Height())
	return nil
}

func (c *cli) renderOptions(scale float64) export.Options {
	return export.Options{
		PNG: export.PNGOptions{Scale: scale},
		PDF: export.PDFOptions{Author: c.cfg.General.Author},
	}
}

func cmdRender(c *cli, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	scale := fs.Float64("scale", 1, "raster scale for png output")
	rest, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	doc, rev, err := c.loadScene(rest[0])
	if err != nil {
		return err
	}
	out := rest[1]
	if filepath.Ext(out) == "" && c.cfg.General.DefaultFormat != "" {
		out += "." + c.cfg.General.DefaultFormat
	}
	opt := c.renderOptions(*scale)
	if rev == 0 {
		if err := export.ExportFile(out, doc, opt); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(c.stdout, "wrote", out)
		return nil
	}

	format, err := export.FormatFromPath(out)
	if err != nil {
		return err
	}
	key := storage.PreviewKey{SceneID: doc.ID, Rev: rev, Kind: string(format), Scale: *scale}
	data, err := c.store.GetOrCreatePreview(c.ctx, key, func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := export.Write(&buf, format, doc, opt); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "wrote %s (revision %d)\n", out, rev)
	return nil
}

func cmdExport(c *cli, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	preset := fs.String("preset", string(export.PresetWeb), "web or print")
	formats := fs.String("formats", "", "comma separated formats, default from preset")
	scale := fs.Float64("scale", 0, "raster scale, default from preset")
	outDir := fs.String("out", "", "output directory, default the preset name")
	rest, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	doc, _, err := c.loadScene(rest[0])
	if err != nil {
		return err
	}
	paths, err := export.BatchExport(doc, export.BatchOptions{
		Preset:  export.PresetName(*preset),
		Formats: splitList(*formats),
		Scale:   *scale,
		OutDir:  *outDir,
	})
	for _, p := range paths {
		_, _ = fmt.Fprintln(c.stdout, "wrote", p)
	}
	return err
}

func cmdBundle(c *cli, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	doc, _, err := c.loadScene(args[0])
	if err != nil {
		return err
	}
	out := args[1]
	if !strings.HasSuffix(strings.ToLower(out), ".zip") {
		out += ".zip"
	}
	if err := export.ExportBundle(out, doc, export.BundleOptions{Render: c.renderOptions(1)}); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.stdout, "wrote", out)
	return nil
}
