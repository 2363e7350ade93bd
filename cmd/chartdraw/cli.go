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
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"chartdraw/internal/backend"
	"chartdraw/internal/config"
	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
)

// cli carries the configuration and lazily opened stores of one command.
type cli struct {
	ctx      context.Context
	cfg      config.AppConfig
	password string
	stdout   io.Writer
	stderr   io.Writer
	log      *slog.Logger

	store   *storage.Store
	catalog *backend.Catalog
}

func (c *cli) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.catalog != nil {
		_ = c.catalog.Close()
	}
}

func (c *cli) openStore() (*storage.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	st, err := storage.Open(c.cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	if os.Getenv(storage.EnvPreviewsMaxBytes) == "" && c.cfg.Storage.PreviewsMaxBytes > 0 {
		st.SetPreviewCap(c.cfg.Storage.PreviewsMaxBytes)
	}
	c.store = st
	return st, nil
}

func (c *cli) catalogEnabled() error {
	if !c.cfg.Catalog.Enabled {
		return fmt.Errorf("catalog is disabled; set catalog.enabled in %s or %s=true", configPathHint(), config.EnvCatalogEnabled)
	}
	return nil
}

func (c *cli) openCatalog() (*backend.Catalog, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	if err := c.catalogEnabled(); err != nil {
		return nil, err
	}
	dsn, err := c.cfg.Catalog.ConnString(c.password)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.Catalog.Timeout())
	defer cancel()
	cat, err := backend.OpenCatalog(ctx, dsn)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

// client returns an HTTP catalog client with a bearer token, requesting and
// storing a new token when the keyring has none.
func (c *cli) client() (*backend.Client, error) {
	if err := c.catalogEnabled(); err != nil {
		return nil, err
	}
	tok, err := config.Secret(config.KeyCatalogToken)
	if err != nil {
		c.log.Warn("keyring unavailable", slog.Any("err", err))
	}
	cl := backend.NewClient(c.cfg.Catalog.BaseURL, tok, c.cfg.Catalog.Timeout())
	if tok == "" {
		subject := c.cfg.General.Author
		if subject == "" {
			subject = "chartdraw"
		}
		if tok, err = cl.RequestToken(c.ctx, subject); err != nil {
			return nil, fmt.Errorf("request catalog token: %w", err)
		}
		if err := config.SetSecret(config.KeyCatalogToken, tok); err != nil {
			c.log.Warn("catalog token not stored", slog.Any("err", err))
		}
	}
	return cl, nil
}

// loadScene resolves a scene argument: an existing file is read from disk,
// anything else is looked up as a scene ID in the local store. rev is the
// latest stored revision, or 0 for files.
func (c *cli) loadScene(arg string) (doc *scene.Document, rev int, err error) {
	if _, statErr := os.Stat(arg); statErr == nil {
		doc, err = scene.Load(arg)
		return doc, 0, err
	}
	if scene.ValidateID(arg) != nil {
		return nil, 0, fmt.Errorf("%s: no such file or scene id", arg)
	}
	st, err := c.openStore()
	if err != nil {
		return nil, 0, err
	}
	doc, err = st.LoadScene(c.ctx, arg)
	if err != nil {
		return nil, 0, err
	}
	revs, err := st.Revisions(c.ctx, arg, 1)
	if err != nil {
		return nil, 0, err
	}
	if len(revs) == 0 {
		return nil, 0, fmt.Errorf("scene %s: %w", arg, storage.ErrNotFound)
	}
	return doc, revs[0].Rev, nil
}

func configPathHint() string {
	if p, err := config.ConfigPath(); err == nil {
		return p
	}
	return "the config file"
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
