/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
)

// Client reads from a catalog served by NewHandler.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a catalog client. A trailing slash on baseURL is ignored.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, u.Path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// RequestToken asks the server for a bearer token and keeps it for later calls.
func (c *Client) RequestToken(ctx context.Context, subject string) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", map[string]any{"subject": subject}, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", errors.New("server returned an empty token")
	}
	c.Token = res.Token
	return res.Token, nil
}

// ListScenes returns the published scenes.
func (c *Client) ListScenes(ctx context.Context) ([]Entry, error) {
	var list []Entry
	if err := c.doJSON(ctx, http.MethodGet, "/api/scenes", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FetchScene downloads and decodes the latest version of a scene.
func (c *Client) FetchScene(ctx context.Context, id string) (*scene.Document, Entry, error) {
	var env SceneEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/scenes/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, Entry{}, err
	}
	doc, err := scene.Unmarshal(env.Scene)
	if err != nil {
		return nil, Entry{}, err
	}
	return doc, env.Entry, nil
}

// SearchScenes runs a full-text search over the published scenes.
func (c *Client) SearchScenes(ctx context.Context, text string, limit int) ([]storage.SearchResult, error) {
	q := url.Values{"q": {text}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var hits []storage.SearchResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}
