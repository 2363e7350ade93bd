//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"chartdraw/internal/crash"
	"chartdraw/internal/export"
	applog "chartdraw/internal/log"
	"chartdraw/internal/undo"
)

// viewer binds a Session to its Fyne widgets.
type viewer struct {
	s      *Session
	w      fyne.Window
	img    *canvas.Image
	status *widget.Label
	log    *slog.Logger
}

func newViewer(s *Session, w fyne.Window) *viewer {
	v := &viewer{
		s:      s,
		w:      w,
		img:    &canvas.Image{FillMode: canvas.ImageFillOriginal, ScaleMode: canvas.ImageScalePixels},
		status: widget.NewLabel(""),
		log:    applog.WithComponent("ui"),
	}
	s.OnChange(v.refresh)
	v.refresh()
	return v
}

func (v *viewer) content() fyne.CanvasObject {
	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentSaveIcon(), v.save),
		widget.NewToolbarAction(theme.DownloadIcon(), v.export),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { v.apply(v.s.Undo) }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { v.apply(v.s.Redo) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), v.s.ZoomOut),
		widget.NewToolbarAction(theme.ZoomInIcon(), v.s.ZoomIn),
		widget.NewToolbarAction(theme.ZoomFitIcon(), v.fit),
	)
	return container.NewBorder(toolbar, v.status, nil, nil, container.NewScroll(container.NewCenter(v.img)))
}

// refresh re-renders the scene into the image widget.
func (v *viewer) refresh() {
	img, err := v.s.Render()
	if err != nil {
		v.log.Error("render failed", slog.Any("err", err))
		v.status.SetText(err.Error())
		return
	}
	v.img.Image = img
	b := img.Bounds()
	v.img.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	v.img.Refresh()
	v.status.SetText(v.s.Status())
	if v.w != nil {
		v.w.SetTitle("chartdraw - " + v.s.Document().Name)
	}
}

func (v *viewer) apply(op func() (bool, error)) {
	if _, err := op(); err != nil {
		dialog.ShowError(err, v.w)
	}
}

func (v *viewer) fit() {
	if v.w == nil {
		return
	}
	sz := v.w.Canvas().Size()
	// leave room for the toolbar and the status line
	v.s.ZoomToFit(float64(sz.Width)-16, float64(sz.Height)-96)
}

func (v *viewer) save() {
	if err := v.s.Save(); err != nil {
		dialog.ShowError(err, v.w)
		return
	}
	v.status.SetText(v.s.Status())
}

func (v *viewer) export() {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, v.w)
			return
		}
		if wc == nil {
			return
		}
		defer func() { _ = wc.Close() }()
		format, ferr := export.FormatFromPath(wc.URI().Path())
		if ferr != nil {
			dialog.ShowError(ferr, v.w)
			return
		}
		if err := export.Write(wc, format, v.s.Document(), export.Options{}); err != nil {
			dialog.ShowError(fmt.Errorf("export: %w", err), v.w)
			return
		}
		v.log.Info("scene exported", slog.String("uri", wc.URI().String()))
	}, v.w)
	d.SetFileName(v.s.Document().ID + ".png")
	d.Show()
}

func (v *viewer) addShortcuts() {
	c := v.w.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { v.save() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { v.apply(v.s.Undo) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { v.apply(v.s.Redo) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyEqual, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { v.s.ZoomIn() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyMinus, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { v.s.ZoomOut() })
}

// Run opens the scene file at path in a viewer window and blocks until it
// is closed.
func Run(path string, cfg undo.Config) error {
	l := applog.WithComponent("ui")
	defer crash.Recover("", os.Args...)

	s, err := OpenSession(path, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	l.Info("starting viewer", slog.String("path", path))

	fyneApp := app.NewWithID("chartdraw")
	w := fyneApp.NewWindow("chartdraw")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1000), 480)
	winH := max(prefs.IntWithFallback("window.height", 760), 360)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	v := newViewer(s, w)
	v.addShortcuts()
	w.SetContent(v.content())

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !s.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save changes to "+s.Path()+" before closing?", func(save bool) {
			if save {
				if err := s.Save(); err != nil {
					dialog.ShowError(err, w)
					return
				}
			}
			w.Close()
		}, w)
	})

	w.ShowAndRun()
	return nil
}
