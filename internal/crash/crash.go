/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics in the CLI into a logged error plus a report file.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	applog "chartdraw/internal/log"
	"chartdraw/internal/telemetry"
	"chartdraw/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// uploadFn sends the report when crash uploads are opted in.
var uploadFn = func(ctx context.Context, report []byte) error {
	return telemetry.Default().UploadCrash(ctx, report)
}

const uploadTimeout = 3 * time.Second

// ReportDir returns the directory crash reports are written to: the user
// cache dir when available, the temp dir otherwise.
func ReportDir() string {
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		return filepath.Join(d, "chartdraw", "crash")
	}
	return os.TempDir()
}

// Recover captures a panic, logs it with the stack trace, writes a report
// into dir (ReportDir when empty), uploads it when telemetry.EnvCrashURL is
// configured and opted in, and exits with code 2. args are recorded in
// the report to help reproduce the failing command.
//
// Usage: defer crash.Recover("", os.Args...)
func Recover(dir string, args ...string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	if dir == "" {
		dir = ReportDir()
	}
	reportPath, err := writeReport(dir, r, stack, args)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	} else if report, err := os.ReadFile(reportPath); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		if err := uploadFn(ctx, report); err != nil {
			l.Warn("crash report upload failed", slog.Any("err", err))
		}
		cancel()
	}
	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func writeReport(dir string, panicVal any, stack []byte, args []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "chartdraw crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if len(args) > 0 {
		_, _ = fmt.Fprintf(&buf, "Command: %s\n", strings.Join(args, " "))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}
