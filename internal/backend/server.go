/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	applog "chartdraw/internal/log"
	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
	"chartdraw/internal/version"
)

const tokenIssuer = "chartdraw-catalog"

// Source is the read side of a catalog served over HTTP.
type Source interface {
	List(ctx context.Context) ([]Entry, error)
	Fetch(ctx context.Context, id string) (*scene.Document, Entry, error)
	Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error)
	Ping(ctx context.Context) error
}

// SceneEnvelope is the response body of GET /api/scenes/{id}.
type SceneEnvelope struct {
	Entry
	Scene json.RawMessage `json:"scene"`
}

type subjectKey struct{}

// NewHandler returns the catalog HTTP API:
//
//	GET  /healthz, /readyz, /version
//	POST /api/auth/token        -> {token, expires_at}
//	GET  /api/scenes            -> []Entry (bearer token)
//	GET  /api/scenes/{id}       -> SceneEnvelope (bearer token)
//	GET  /api/search?q=&limit=  -> []storage.SearchResult (bearer token)
func NewHandler(src Source, secret string) http.Handler {
	l := applog.WithComponent("catalog")
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := src.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/token", func(w http.ResponseWriter, req *http.Request) {
		// Optional JSON body: { "subject": "name", "ttl_seconds": 3600 }
		var body struct {
			Subject    string `json:"subject"`
			TTLSeconds int64  `json:"ttl_seconds"`
		}
		b, _ := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		_ = json.Unmarshal(b, &body)
		if body.Subject == "" {
			body.Subject = "viewer"
		}
		if body.TTLSeconds <= 0 || body.TTLSeconds > 24*3600 {
			body.TTLSeconds = 3600
		}
		exp := time.Now().Add(time.Duration(body.TTLSeconds) * time.Second)
		tok, err := signToken(secret, body.Subject, exp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		l.Info("token issued", slog.String("subject", body.Subject))
		writeJSON(w, http.StatusOK, map[string]any{
			"token":      tok,
			"expires_at": exp.UTC().Format(time.RFC3339),
		})
	}).Methods(http.MethodPost)

	// Wrapped per route so /api/auth/token keeps its 405 on a method mismatch.
	auth := requireToken(secret)
	r.Handle("/api/scenes", auth(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		list, err := src.List(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if list == nil {
			list = []Entry{}
		}
		writeJSON(w, http.StatusOK, list)
	}))).Methods(http.MethodGet)
	r.Handle("/api/scenes/{id}", auth(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		doc, e, err := src.Fetch(req.Context(), mux.Vars(req)["id"])
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, err)
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		data, err := scene.Marshal(doc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		l.Debug("scene served", slog.String("scene", e.ID), slog.String("subject", subjectFrom(req.Context())))
		writeJSON(w, http.StatusOK, SceneEnvelope{Entry: e, Scene: data})
	}))).Methods(http.MethodGet)
	r.Handle("/api/search", auth(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		q := storage.SearchQuery{Text: req.URL.Query().Get("q"), Limit: 20}
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 200 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be between 1 and 200"))
				return
			}
			q.Limit = n
		}
		hits, err := src.Search(req.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if hits == nil {
			hits = []storage.SearchResult{}
		}
		writeJSON(w, http.StatusOK, hits)
	}))).Methods(http.MethodGet)
	return r
}

// Serve runs h on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	l := applog.WithOperation(applog.WithComponent("catalog"), "serve")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("catalog api listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func signToken(secret, subject string, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// verifyToken checks signature, issuer and expiry and returns the subject.
func verifyToken(secret, token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func requireToken(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			scheme, tok, ok := strings.Cut(req.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("missing bearer token"))
				return
			}
			sub, err := verifyToken(secret, strings.TrimSpace(tok))
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("invalid token"))
				return
			}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), subjectKey{}, sub)))
		})
	}
}

// subjectFrom returns the token subject of an authenticated request.
func subjectFrom(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
