// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensahe/passkey/internal/config"
)

func sessionTestConfig() config.SessionConfig {
	return config.SessionConfig{
		Driver:          "memory",
		CookieName:      "mensahe_session",
		LifetimeMinutes: 120,
	}
}

func TestSessionMiddlewareMintsCookie(t *testing.T) {
	var seen string
	handler := SessionMiddleware(sessionTestConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionKeyFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "mensahe_session", cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 120*60, cookies[0].MaxAge)
}

func TestSessionMiddlewareReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()

	var seen string
	handler := SessionMiddleware(sessionTestConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionKeyFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mensahe_session", Value: existing})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, existing, seen)
}

func TestSessionMiddlewareRejectsForgedCookie(t *testing.T) {
	var seen string
	handler := SessionMiddleware(sessionTestConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionKeyFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mensahe_session", Value: "../../etc/passwd"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// A non-UUID cookie gets replaced with a fresh session.
	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.NotEqual(t, "../../etc/passwd", seen)
}

func TestCORSMiddlewareWildcard(t *testing.T) {
	cfg := config.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}

	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// The wildcard origin must never be paired with the credentials
	// header; browsers reject that combination on cookie-bearing requests.
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddlewareExplicitOrigins(t *testing.T) {
	cfg := config.CORSConfig{
		AllowedOrigins: []string{"https://mensahe.app"},
		AllowedMethods: []string{"POST"},
		AllowedHeaders: []string{"Content-Type"},
	}

	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Allowed origin is echoed back with Vary.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://mensahe.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://mensahe.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")

	// Unknown origin gets no CORS headers at all.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddlewareAnswersPreflight(t *testing.T) {
	cfg := config.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}

	reached := false
	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, reached, "preflight must not reach the handler")
}
