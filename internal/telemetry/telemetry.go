/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in usage events for CLI commands and uploads
// crash reports. Nothing leaves the machine unless EnvOptIn is set and an
// endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "chartdraw/internal/log"
	"chartdraw/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "CHARTDRAW_TELEMETRY_OPT_IN"
	EnvURL       = "CHARTDRAW_TELEMETRY_URL"
	EnvCrashURL  = "CHARTDRAW_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "CHARTDRAW_TELEMETRY_TIMEOUT_MS"
)

const queueSize = 64

// Config holds the endpoints and opt-in state. The zero value sends nothing.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
}

// FromEnv reads Config from the environment. The timeout defaults to 1.5s.
func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   1500 * time.Millisecond,
	}
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMs))); err == nil && v > 0 {
		cfg.Timeout = time.Duration(v) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Event is one usage record. Props must not carry scene content or file paths.
type Event struct {
	Name       string         `json:"name"`
	TS         time.Time      `json:"ts"`
	Version    string         `json:"version"`
	OS         string         `json:"os"`
	Arch       string         `json:"arch"`
	Command    string         `json:"command,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	OK         bool           `json:"ok"`
	Props      map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from one background goroutine.
// Send never blocks; events are dropped when the queue is full.
type Client struct {
	cfg     Config
	log     *slog.Logger
	http    *http.Client
	q       chan Event
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	dropped atomic.Int64
}

// New constructs a client. The sender goroutine only runs when events are enabled.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan Event, queueSize),
		done: make(chan struct{}),
	}
	if c.Enabled() {
		go c.loop()
	} else {
		close(c.done)
	}
	return c
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns a process-wide client configured from the environment.
func Default() *Client {
	defaultOnce.Do(func() { defaultClient = New(FromEnv()) })
	return defaultClient
}

// Enabled reports whether usage events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Dropped reports how many events were discarded because the queue was full.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Send queues ev, filling in the timestamp and build information.
func (c *Client) Send(ev Event) {
	if !c.Enabled() || ev.Name == "" {
		return
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	ev.Version = version.String()
	ev.OS, ev.Arch = runtime.GOOS, runtime.GOARCH
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.q <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Command records the outcome of one CLI command. Only the command name is
// sent, never its arguments.
func (c *Client) Command(name string, d time.Duration, err error) {
	c.Send(Event{Name: "command", Command: name, DurationMs: d.Milliseconds(), OK: err == nil})
}

// Close stops accepting events and waits until the queue is drained or ctx ends.
func (c *Client) Close(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.q)
	}
	c.mu.Unlock()
	select {
	case <-c.done:
	case <-ctx.Done():
		c.log.Debug("telemetry queue not drained", slog.Int("pending", len(c.q)))
	}
}

func (c *Client) loop() {
	defer close(c.done)
	for ev := range c.q {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := c.post(context.Background(), c.cfg.EventsURL, "application/json", b); err != nil {
			c.log.Debug("telemetry send failed", slog.String("event", ev.Name), slog.Any("err", err))
		}
	}
}

// UploadCrash posts a crash report. It is synchronous because the process
// is about to exit.
func (c *Client) UploadCrash(ctx context.Context, report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	return c.post(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint: %s", resp.Status)
	}
	return nil
}
