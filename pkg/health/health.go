// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package health provides liveness and readiness checks for the server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is operating normally.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is not functioning.
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Name is the identifier for this health check.
	Name string `json:"name"`
	// Status is the health status of the component.
	Status Status `json:"status"`
	// Error contains error details if the check failed.
	Error string `json:"error,omitempty"`
	// Latency is how long the check took to execute.
	Latency time.Duration `json:"latency"`
}

// CheckFunc is a function that performs a health check. It should return
// quickly and indicate component health.
type CheckFunc func(ctx context.Context) error

// Checker manages readiness checks. Liveness is unconditional: if the
// process answers, it is alive.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
	}
}

// Register adds a named readiness check.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all registered checks and returns their results.
func (c *Checker) Run(ctx context.Context) []CheckResult {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	results := make([]CheckResult, 0, len(checks))
	for name, fn := range checks {
		start := time.Now()
		result := CheckResult{
			Name:   name,
			Status: StatusHealthy,
		}
		if err := fn(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()
		}
		result.Latency = time.Since(start)
		results = append(results, result)
	}
	return results
}

// LivenessHandler answers 200 whenever the process is running.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}
}

// ReadinessHandler runs all registered checks and answers 503 if any
// fails.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := c.Run(ctx)
		status := StatusHealthy
		code := http.StatusOK
		for _, result := range results {
			if result.Status != StatusHealthy {
				status = StatusUnhealthy
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(struct {
			Status Status        `json:"status"`
			Checks []CheckResult `json:"checks,omitempty"`
		}{
			Status: status,
			Checks: results,
		})
	}
}
