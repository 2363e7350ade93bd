/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"chartdraw/internal/scene"
	"chartdraw/internal/stylepack"
)

func (c *cli) themeDir() string { return filepath.Join(c.cfg.Storage.Dir, "themes") }

// themes layers ./themes of the working directory over the user's theme dir.
func (c *cli) themes() stylepack.Library {
	return stylepack.Library{Dirs: []string{"themes", c.themeDir()}}
}

func cmdTheme(c *cli, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		return themeList(c, args[1:])
	case "apply":
		return themeApply(c, args[1:])
	case "export":
		return themeExport(c, args[1:])
	case "install":
		return themeInstall(c, args[1:])
	default:
		return fmt.Errorf("%w: unknown theme command %q", errUsage, args[0])
	}
}

func themeList(c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	lib := c.themes()
	for _, n := range lib.Names() {
		t, err := lib.Resolve(n)
		if err != nil {
			_, _ = fmt.Fprintf(c.stdout, "%s\t(invalid: %v)\n", n, err)
			continue
		}
		_, _ = fmt.Fprintf(c.stdout, "%s\t%s\n", n, strings.Join(t.Palette, " "))
	}
	return nil
}

func themeApply(c *cli, args []string) error {
	fs := flag.NewFlagSet("theme apply", flag.ContinueOnError)
	out := fs.String("out", "", "write the themed scene here instead of in place")
	rest, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	t, err := c.themes().Resolve(rest[0])
	if err != nil {
		return err
	}
	doc, err := scene.Load(rest[1])
	if err != nil {
		return err
	}
	n := stylepack.Apply(doc, t)
	target := rest[1]
	if *out != "" {
		target = *out
	}
	if err := scene.Save(target, doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "applied %s to %d elements, wrote %s\n", t.Name, n, target)
	return nil
}

func themeExport(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := stylepack.ExportPack(c.themeDir(), args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "wrote %s (%d themes)\n", args[0], n)
	return nil
}

func themeInstall(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	names, err := stylepack.InstallPack(args[0], c.themeDir())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "installed %d themes: %s\n", len(names), strings.Join(names, ", "))
	return nil
}
