/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"chartdraw/internal/config"
	"chartdraw/internal/crash"
	applog "chartdraw/internal/log"
	"chartdraw/internal/telemetry"
	"chartdraw/internal/version"
)

// errUsage marks errors caused by bad arguments; they exit with code 2.
var errUsage = errors.New("usage")

type command struct {
	usage string
	help  string
	run   func(c *cli, args []string) error
}

var commands = map[string]command{
	"version":  {"version", "Show version", cmdVersion},
	"init":     {"init [-size WxH] <file> [name]", "Create an empty scene file", cmdInit},
	"validate": {"validate <file>", "Check a scene file against the schema", cmdValidate},
	"bounds":   {"bounds <file|id>", "Print the bounding rectangle of a scene", cmdBounds},
	"render":   {"render [-scale N] <file|id> <out.svg|png|pdf>", "Render a scene; stored scenes use the preview cache", cmdRender},
	"export":   {"export [-preset web|print] [-formats svg,png,pdf,zip] [-scale N] [-out dir] <file|id>", "Export a scene with a preset", cmdExport},
	"bundle":   {"bundle <file|id> <out.zip>", "Package a scene with its renders", cmdBundle},
	"save":     {"save <file>", "Store a scene file as a new revision", cmdSave},
	"list":     {"list", "List stored scenes", cmdList},
	"history":  {"history [-limit N] <id>", "List the revisions of a stored scene", cmdHistory},
	"restore":  {"restore <id> <rev> <file>", "Write a stored revision to a file", cmdRestore},
	"delete":   {"delete <id>", "Delete a stored scene", cmdDelete},
	"search":   {"search [-catalog] [-limit N] <words...>", "Search scene names and text labels", cmdSearch},
	"publish":  {"publish <file|id>", "Publish a scene to the catalog", cmdPublish},
	"fetch":    {"fetch <id> <file>", "Download a scene from the catalog", cmdFetch},
	"catalog":  {"catalog", "List scenes in the catalog", cmdCatalog},
	"serve":    {"serve [-addr :8080]", "Serve the catalog over HTTP", cmdServe},
	"theme":    {"theme list | apply [-out file] <name> <file> | export <zip> | install <zip>", "Manage chart themes and style packs", cmdTheme},
	"view":     {"view <file>", "Open a scene in the viewer (build with -tags fyne)", cmdView},
	"config":   {"config", "Print the effective configuration", cmdConfig},
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "chartdraw - chart scene tool")
	_, _ = fmt.Fprintf(w, "Version: %s\n\n", version.String())
	_, _ = fmt.Fprintln(w, "Usage:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := commands[n]
		_, _ = fmt.Fprintf(w, "  chartdraw %-70s %s\n", c.usage, c.help)
	}
}

func main() {
	defer crash.Recover("", os.Args...)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, password, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	logOpts := cfg.Logging.Options()
	logOpts.Output = stderr
	applog.Init(logOpts)
	l := applog.WithComponent("cli")

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	name := args[0]
	switch name {
	case "-v", "--version":
		name = "version"
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return 2
	}

	c := &cli{
		ctx:      context.Background(),
		cfg:      cfg,
		password: password,
		stdout:   stdout,
		stderr:   stderr,
		log:      applog.WithOperation(l, name),
	}
	defer c.close()
	c.log.Debug("start", slog.Int("args", len(args)-1))
	start := time.Now()
	err = cmd.run(c, args[1:])
	reportCommand(name, time.Since(start), err)
	if err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(stderr, "usage: chartdraw %s\n", cmd.usage)
			return 2
		}
		c.log.Error("command failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// reportCommand sends an opt-in usage event and waits briefly for delivery.
func reportCommand(name string, d time.Duration, err error) {
	tel := telemetry.Default()
	if !tel.Enabled() {
		return
	}
	tel.Command(name, d, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tel.Close(ctx)
}

// parse parses the flags of a subcommand and checks the positional
// argument count.
func parse(fs *flag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := fs.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, errUsage
	}
	return rest, nil
}

func cmdVersion(c *cli, args []string) error {
	_, err := fmt.Fprintln(c.stdout, "chartdraw", version.String())
	return err
}

func cmdConfig(c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	path, _ := config.ConfigPath()
	_, _ = fmt.Fprintf(c.stdout, "# file: %s\n", path)
	for _, key := range []string{"general.author", "storage.dir", "storage.keep_revisions", "history.max_bytes",
		"catalog.enabled", "catalog.dsn", "catalog.base_url", "catalog.timeout_ms",
		"logging.level", "logging.format", "logging.source", "logging.file"} {
		if env, ok := config.EnvOverrideFor(key); ok {
			_, _ = fmt.Fprintf(c.stdout, "# %s overridden by %s\n", key, env)
		}
	}
	out, err := marshalYAML(c.cfg)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(out)
	return err
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
