/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration of chartdraw from a YAML file,
// applies environment overrides and keeps secrets in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "chartdraw/internal/log"
	"chartdraw/internal/undo"
)

// AppConfig is the user-editable configuration persisted to a YAML file in
// the user scope. Environment variables are read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Storage       StorageConfig `yaml:"storage"`
	History       HistoryConfig `yaml:"history"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Author string `yaml:"author"`
	// DefaultFormat is used by render when the output has no known extension.
	DefaultFormat string `yaml:"default_format"`
}

type StorageConfig struct {
	Dir              string `yaml:"dir"`
	KeepRevisions    int    `yaml:"keep_revisions"` // 0 keeps all
	PreviewsMaxBytes int64  `yaml:"previews_max_bytes"`
}

type HistoryConfig struct {
	MaxBytes    int `yaml:"max_bytes"`
	MaxPerScene int `yaml:"max_per_scene"`
	CoalesceMs  int `yaml:"coalesce_ms"`
}

// CatalogConfig points at the shared catalog. DSN must not carry a password;
// it is kept in the keyring.
type CatalogConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	BaseURL   string `yaml:"base_url"`
	ServeAddr string `yaml:"serve_addr"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DefaultFormat: "svg"},
		Storage:       StorageConfig{Dir: defaultDataDir(), KeepRevisions: 50, PreviewsMaxBytes: 64 * 1024 * 1024},
		History:       HistoryConfig{MaxBytes: 16 * 1024 * 1024, MaxPerScene: 200, CoalesceMs: 500},
		Catalog:       CatalogConfig{Enabled: false, BaseURL: "http://localhost:8080", ServeAddr: ":8080", TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile       = "CHARTDRAW_CONFIG"
	EnvAuthor           = "CHARTDRAW_AUTHOR"
	EnvDataDir          = "CHARTDRAW_DATA_DIR"
	EnvKeepRevisions    = "CHARTDRAW_KEEP_REVISIONS"
	EnvHistoryMaxBytes  = "CHARTDRAW_HISTORY_MAX_BYTES"
	EnvCatalogEnabled   = "CHARTDRAW_CATALOG_ENABLED"
	EnvCatalogDSN       = "CHARTDRAW_CATALOG_DSN"
	EnvCatalogURL       = "CHARTDRAW_CATALOG_URL"
	EnvCatalogTimeoutMs = "CHARTDRAW_CATALOG_TIMEOUT_MS"
	EnvAuthSecret       = "CHARTDRAW_AUTH_SECRET"
	// EnvLogLevel Logging envs
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
)

// Service and keys in the OS keyring.
const (
	keyringService     = "chartdraw"
	KeyCatalogPassword = "catalog_password"
	KeyCatalogToken    = "catalog_token"
	KeyServerSecret    = "server_secret"
)

// TokenStore abstracts the keyring, so we can stub it in tests.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base := userDir("AppData", filepath.Join("Library", "Application Support"), ".config")
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

func defaultDataDir() string {
	return userDir("LocalAppData", filepath.Join("Library", "Application Support"), filepath.Join(".local", "share"))
}

func userDir(winEnv, darwinRel, unixRel string) string {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv(winEnv)
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(base, "chartdraw")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), darwinRel, "chartdraw")
	default: // linux and others
		if winEnv == "AppData" {
			if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
				return filepath.Join(x, "chartdraw")
			}
		} else if x := os.Getenv("XDG_DATA_HOME"); x != "" {
			return filepath.Join(x, "chartdraw")
		}
		return filepath.Join(os.Getenv("HOME"), unixRel, "chartdraw")
	}
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The catalog password is read from the keyring and
// returned separately; a missing entry yields "".
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	pw, _ := tokenStore.Get(keyringService, KeyCatalogPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the catalog password into
// the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, KeyCatalogPassword, password); err != nil {
			return fmt.Errorf("store catalog password: %w", err)
		}
	}
	return nil
}

// Secret returns a keyring entry, or "" when it does not exist.
func Secret(key string) (string, error) {
	v, err := tokenStore.Get(keyringService, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetSecret stores a keyring entry; an empty value deletes it.
func SetSecret(key, value string) error {
	if value == "" {
		err := tokenStore.Delete(keyringService, key)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return tokenStore.Set(keyringService, key, value)
}

// ServerSecret returns the token signing secret of the catalog API, from
// CHARTDRAW_AUTH_SECRET or the keyring.
func ServerSecret() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAuthSecret)); v != "" {
		return v, nil
	}
	v, err := Secret(KeyServerSecret)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("no server secret: set %s or store %q in the keyring", EnvAuthSecret, KeyServerSecret)
	}
	return v, nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Author); s != "" {
		dst.General.Author = s
	}
	if s := strings.TrimSpace(src.General.DefaultFormat); s != "" {
		dst.General.DefaultFormat = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Storage.Dir); s != "" {
		dst.Storage.Dir = s
	}
	if src.Storage.KeepRevisions != 0 {
		dst.Storage.KeepRevisions = src.Storage.KeepRevisions
	}
	if src.Storage.PreviewsMaxBytes != 0 {
		dst.Storage.PreviewsMaxBytes = src.Storage.PreviewsMaxBytes
	}
	if src.History.MaxBytes != 0 {
		dst.History.MaxBytes = src.History.MaxBytes
	}
	if src.History.MaxPerScene != 0 {
		dst.History.MaxPerScene = src.History.MaxPerScene
	}
	if src.History.CoalesceMs != 0 {
		dst.History.CoalesceMs = src.History.CoalesceMs
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Catalog.Enabled = src.Catalog.Enabled
	if s := strings.TrimSpace(src.Catalog.DSN); s != "" {
		dst.Catalog.DSN = s
	}
	if s := strings.TrimSpace(src.Catalog.BaseURL); s != "" {
		dst.Catalog.BaseURL = s
	}
	if s := strings.TrimSpace(src.Catalog.ServeAddr); s != "" {
		dst.Catalog.ServeAddr = s
	}
	if src.Catalog.TimeoutMs != 0 {
		dst.Catalog.TimeoutMs = src.Catalog.TimeoutMs
	}
	// logging
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAuthor)); v != "" {
		cfg.General.Author = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if n, ok := envInt(EnvKeepRevisions); ok {
		cfg.Storage.KeepRevisions = n
	}
	if n, ok := envInt(EnvHistoryMaxBytes); ok {
		cfg.History.MaxBytes = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogEnabled)); v != "" {
		cfg.Catalog.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDSN)); v != "" {
		cfg.Catalog.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogURL)); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if n, ok := envInt(EnvCatalogTimeoutMs); ok {
		cfg.Catalog.TimeoutMs = n
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.author":         EnvAuthor,
		"storage.dir":            EnvDataDir,
		"storage.keep_revisions": EnvKeepRevisions,
		"history.max_bytes":      EnvHistoryMaxBytes,
		"catalog.enabled":        EnvCatalogEnabled,
		"catalog.dsn":            EnvCatalogDSN,
		"catalog.base_url":       EnvCatalogURL,
		"catalog.timeout_ms":     EnvCatalogTimeoutMs,
		"logging.level":          EnvLogLevel,
		"logging.format":         EnvLogFormat,
		"logging.source":         EnvLogSource,
		"logging.file":           EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Options converts the logging section for log.Init.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// UndoConfig converts the history section for undo.NewManager.
func (h HistoryConfig) UndoConfig() undo.Config {
	return undo.Config{
		MaxBytes:    h.MaxBytes,
		MaxPerScene: h.MaxPerScene,
		MinInterval: time.Duration(h.CoalesceMs) * time.Millisecond,
	}
}

// Timeout returns the catalog request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return time.Duration(Defaults().Catalog.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ConnString returns DSN with password filled in. URL style DSNs get the
// password in their user info; key/value DSNs get a password= entry.
func (c CatalogConfig) ConnString(password string) (string, error) {
	dsn := strings.TrimSpace(c.DSN)
	if dsn == "" {
		return "", errors.New("catalog dsn is not configured")
	}
	if password == "" {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse catalog dsn: %w", err)
		}
		if _, has := u.User.Password(); has {
			return "", errors.New("catalog dsn must not contain a password; store it in the keyring")
		}
		u.User = url.UserPassword(u.User.Username(), password)
		return u.String(), nil
	}
	if strings.Contains(dsn, "password=") {
		return "", errors.New("catalog dsn must not contain a password; store it in the keyring")
	}
	return dsn + " password='" + strings.ReplaceAll(password, "'", "\\'") + "'", nil
}
