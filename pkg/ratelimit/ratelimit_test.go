// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(Config{Enabled: false, RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("client"))
	}
}

func TestLimiterEnforcesBurst(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 60, Burst: 3})
	defer l.Stop()

	assert.True(t, l.Allow("client"))
	assert.True(t, l.Allow("client"))
	assert.True(t, l.Allow("client"))
	assert.False(t, l.Allow("client"))
}

func TestLimiterTracksClientsIndependently(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.7:4567"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
}

func TestMiddlewareKeysByHostOnly(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same host, different source ports share a bucket.
	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "203.0.113.7:1111"
	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "203.0.113.7:2222"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestConfigDefaults(t *testing.T) {
	l := New(Config{Enabled: true})
	defer l.Stop()

	// Defaulted to 60 rpm with matching burst.
	for i := 0; i < 60; i++ {
		assert.True(t, l.Allow("client"), "request %d", i)
	}
	assert.False(t, l.Allow("client"))
}
