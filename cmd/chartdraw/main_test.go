/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"chartdraw/internal/config"
	"chartdraw/internal/drawing"
	"chartdraw/internal/scene"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigFile, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvCatalogEnabled, "")
	t.Setenv(config.EnvLogLevel, "error")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("chartdraw %s: exit %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, out, errOut)
	}
	return out
}

// writeChart creates a scene file with a bar and a label.
func writeChart(t *testing.T, path string) *scene.Document {
	t.Helper()
	doc := scene.New("Weekly signups", 200, 100)
	bar := drawing.NewPath().Fill("steelblue", 1)
	bar.MoveTo(10, 90).LineTo(10, 40).LineTo(40, 40).LineTo(40, 90).Close()
	doc.Root.Append(bar)
	label := drawing.NewText("Monday")
	label.Origin().Move(10, 20)
	doc.Root.Append(label)
	if err := scene.Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return doc
}

func TestUsageAndVersion(t *testing.T) {
	setupCLI(t)
	if out := mustRun(t); !strings.Contains(out, "chartdraw render") {
		t.Fatalf("usage missing commands: %s", out)
	}
	if out := mustRun(t, "--version"); !strings.HasPrefix(out, "chartdraw ") {
		t.Fatalf("version output %q", out)
	}
	if _, _, code := runCLI(t, "frobnicate"); code != 2 {
		t.Fatalf("unknown command exit %d", code)
	}
	if _, errOut, code := runCLI(t, "render", "only-one-arg"); code != 2 || !strings.Contains(errOut, "usage: chartdraw render") {
		t.Fatalf("bad arguments: exit %d stderr %q", code, errOut)
	}
}

func TestInitValidateBounds(t *testing.T) {
	dir := setupCLI(t)
	path := filepath.Join(dir, "empty.json")
	mustRun(t, "init", "-size", "320x240", path, "Empty chart")
	if _, _, code := runCLI(t, "init", path); code != 1 {
		t.Fatalf("init over an existing file must fail, exit %d", code)
	}
	doc, err := scene.Load(path)
	if err != nil || doc.Name != "Empty chart" || doc.Width != 320 {
		t.Fatalf("init wrote %+v err %v", doc, err)
	}
	if out := mustRun(t, "bounds", path); strings.TrimSpace(out) != "empty" {
		t.Fatalf("bounds of empty scene: %q", out)
	}

	chart := filepath.Join(dir, "chart.json")
	r, ok := writeChart(t, chart).Bounds()
	if !ok {
		t.Fatal("chart has no bounds")
	}
	if out := mustRun(t, "validate", chart); !strings.Contains(out, "2 elements") {
		t.Fatalf("validate: %q", out)
	}
	want := fmt.Sprintf("%g %g %g %g", r.P0.X, r.P0.Y, r.P1.X, r.P1.Y)
	if out := mustRun(t, "bounds", chart); !strings.HasPrefix(out, want) {
		t.Fatalf("bounds: got %q want prefix %q", out, want)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id":"nope"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, code := runCLI(t, "validate", bad); code != 1 {
		t.Fatalf("invalid file must fail validation")
	}
}

func TestRenderExportBundle(t *testing.T) {
	dir := setupCLI(t)
	chart := filepath.Join(dir, "chart.json")
	writeChart(t, chart)

	for _, name := range []string{"out.svg", "out.png", "out.pdf"} {
		out := filepath.Join(dir, "renders", name)
		mustRun(t, "render", "-scale", "2", chart, out)
		if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
			t.Fatalf("render %s: %v", name, err)
		}
	}

	outDir := filepath.Join(dir, "web")
	out := mustRun(t, "export", "-preset", "web", "-out", outDir, chart)
	if strings.Count(out, "wrote") != 2 {
		t.Fatalf("web preset should write svg and png: %q", out)
	}

	zipPath := filepath.Join(dir, "chart")
	mustRun(t, "bundle", chart, zipPath)
	zr, err := zip.OpenReader(zipPath + ".zip")
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 5 {
		t.Fatalf("bundle has %d entries", len(zr.File))
	}
}

func TestStoreWorkflow(t *testing.T) {
	dir := setupCLI(t)
	chart := filepath.Join(dir, "chart.json")
	doc := writeChart(t, chart)

	if out := mustRun(t, "save", chart); !strings.Contains(out, "revision 1") {
		t.Fatalf("save: %q", out)
	}
	doc.Name = "Weekly signups (final)"
	if err := scene.Save(chart, doc); err != nil {
		t.Fatal(err)
	}
	if out := mustRun(t, "save", chart); !strings.Contains(out, "revision 2") {
		t.Fatalf("second save: %q", out)
	}

	if out := mustRun(t, "list"); !strings.Contains(out, doc.ID) || !strings.Contains(out, "(final)") {
		t.Fatalf("list: %q", out)
	}
	hist := mustRun(t, "history", doc.ID)
	if !regexp.MustCompile(`(?m)^2\s`).MatchString(hist) || !regexp.MustCompile(`(?m)^1\s`).MatchString(hist) {
		t.Fatalf("history: %q", hist)
	}

	// stored scenes render through the preview cache
	png := filepath.Join(dir, "stored.png")
	if out := mustRun(t, "render", doc.ID, png); !strings.Contains(out, "revision 2") {
		t.Fatalf("render by id: %q", out)
	}
	first, _ := os.ReadFile(png)
	mustRun(t, "render", doc.ID, png)
	second, _ := os.ReadFile(png)
	if len(first) == 0 || !bytes.Equal(first, second) {
		t.Fatalf("cached render differs")
	}

	restored := filepath.Join(dir, "restored.json")
	mustRun(t, "restore", doc.ID, "1", restored)
	old, err := scene.Load(restored)
	if err != nil || old.Name != "Weekly signups" {
		t.Fatalf("restore: %+v %v", old, err)
	}
	if _, _, code := runCLI(t, "restore", doc.ID, "x", restored); code != 2 {
		t.Fatalf("non-numeric revision must be a usage error")
	}

	if out := mustRun(t, "search", "monday"); !strings.Contains(out, doc.ID) || !strings.Contains(out, "[Monday]") {
		t.Fatalf("search: %q", out)
	}

	mustRun(t, "delete", doc.ID)
	if _, _, code := runCLI(t, "history", doc.ID); code != 1 {
		t.Fatalf("history of deleted scene must fail")
	}
}

func TestCatalogRequiresEnabling(t *testing.T) {
	dir := setupCLI(t)
	chart := filepath.Join(dir, "chart.json")
	writeChart(t, chart)
	_, errOut, code := runCLI(t, "publish", chart)
	if code != 1 || !strings.Contains(errOut, config.EnvCatalogEnabled) {
		t.Fatalf("publish without catalog: exit %d stderr %q", code, errOut)
	}
}

func TestConfigCommand(t *testing.T) {
	setupCLI(t)
	t.Setenv(config.EnvAuthor, "Robin")
	out := mustRun(t, "config")
	if !strings.Contains(out, "author: Robin") || !strings.Contains(out, "general.author overridden by "+config.EnvAuthor) {
		t.Fatalf("config output: %s", out)
	}
}

func TestThemeCommands(t *testing.T) {
	dir := setupCLI(t)
	chart := filepath.Join(dir, "chart.json")
	writeChart(t, chart)

	if out := mustRun(t, "theme", "list"); !strings.Contains(out, "dark\t") {
		t.Fatalf("theme list: %q", out)
	}
	themed := filepath.Join(dir, "dark.json")
	if out := mustRun(t, "theme", "apply", "-out", themed, "dark", chart); !strings.Contains(out, "applied dark") {
		t.Fatalf("theme apply: %q", out)
	}
	doc, err := scene.Load(themed)
	if err != nil || doc.Background != "#1e1e1e" {
		t.Fatalf("themed scene: %+v %v", doc, err)
	}
	if _, _, code := runCLI(t, "theme", "apply", "nope", chart); code != 1 {
		t.Fatalf("unknown theme must fail, exit %d", code)
	}
	if _, _, code := runCLI(t, "theme", "paint"); code != 2 {
		t.Fatalf("unknown theme subcommand must be a usage error, exit %d", code)
	}

	pack := filepath.Join(dir, "pack.zip")
	if out := mustRun(t, "theme", "export", pack); !strings.Contains(out, "(0 themes)") {
		t.Fatalf("theme export: %q", out)
	}
	if out := mustRun(t, "theme", "install", pack); !strings.Contains(out, "installed 0 themes") {
		t.Fatalf("theme install: %q", out)
	}
}
