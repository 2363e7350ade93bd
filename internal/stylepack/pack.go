/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	applog "chartdraw/internal/log"
)

// ManifestName is the plain-text manifest at the root of a style pack.
const ManifestName = "stylepack.manifest.txt"

// maxThemeSize bounds a single theme entry read from a pack.
const maxThemeSize = 1 << 20

// ExportPack zips every theme file in dir into zipPath. The archive holds the
// themes at its root plus a manifest listing them. An empty dir still yields
// an archive with only the manifest.
func ExportPack(dir, zipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("dir", dir))
	if strings.TrimSpace(zipPath) == "" {
		return 0, errors.New("zip path is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read theme dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Ext) {
			names = append(names, e.Name())
		}
	}

	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(zipPath)
	zf, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("chartdraw style pack\nCreated: %s\nThemes: %s\n",
		time.Now().Format(time.RFC3339), strings.Join(names, ", "))
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	for _, n := range names {
		if err := addFile(zw, filepath.Join(dir, n), n); err != nil {
			l.Error("zip build failed", slog.String("theme", n), slog.Any("err", err))
			return 0, fmt.Errorf("add %s: %w", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("themes", len(names)), slog.String("zip", zipPath))
	return len(names), nil
}

func addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// InstallPack extracts the themes of a style pack into dir. Entries are
// flattened to their base name and validated before they are written.
// Existing theme files are kept. It returns the names of the installed themes.
func InstallPack(zipPath, dir string) ([]string, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("dir", dir))
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure theme dir: %w", err)
	}

	var installed []string
	for _, f := range r.File {
		base := path.Base(f.Name)
		if f.FileInfo().IsDir() || base == ManifestName || !strings.HasSuffix(base, Ext) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, fmt.Errorf("read %s: %w", f.Name, err)
		}
		t, err := Parse(data)
		if err != nil {
			return installed, fmt.Errorf("%s: %w", f.Name, err)
		}
		target := filepath.Join(dir, t.Name+Ext)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing theme", slog.String("theme", t.Name))
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, fmt.Errorf("write theme: %w", err)
		}
		installed = append(installed, t.Name)
	}
	l.Info("style pack installed", slog.Int("themes", len(installed)))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxThemeSize {
		return nil, fmt.Errorf("entry is larger than %d bytes", maxThemeSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, maxThemeSize))
}
