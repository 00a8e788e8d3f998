// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"context"
	"sync"

	"github.com/mensahe/passkey/pkg/metrics"
)

// SessionStore holds the pending registration between the begin and finish
// steps, keyed by an opaque per-client session identifier. One pending
// registration per key; Put overwrites (last request wins). The store does
// not enforce expiry; the verifier checks CreatedAt lazily.
//
// Implementations must make each operation atomic with respect to a single
// key so that concurrent submissions cannot both consume one challenge.
type SessionStore interface {
	// Put stores the pending registration, replacing any prior one.
	Put(ctx context.Context, sessionKey string, pending *PendingRegistration) error

	// Get retrieves the pending registration without consuming it.
	// Returns ErrNoRegistrationSession if none exists.
	Get(ctx context.Context, sessionKey string) (*PendingRegistration, error)

	// Take retrieves and clears the pending registration in one atomic
	// step. Returns ErrNoRegistrationSession if none exists. The verifier
	// uses Take so a challenge can be consumed at most once even under
	// concurrent submissions.
	Take(ctx context.Context, sessionKey string) (*PendingRegistration, error)

	// Clear removes the pending registration, if any.
	Clear(ctx context.Context, sessionKey string) error
}

// MemorySessionStore is an in-memory implementation of SessionStore.
// This is intended for development and testing only. It reports its open
// slot count through the pending-registrations gauge; Redis deployments
// rely on Redis metrics instead.
type MemorySessionStore struct {
	mu      sync.RWMutex
	pending map[string]*PendingRegistration
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		pending: make(map[string]*PendingRegistration),
	}
}

// Put stores the pending registration, replacing any prior one.
func (s *MemorySessionStore) Put(ctx context.Context, sessionKey string, pending *PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[sessionKey]; !ok {
		metrics.PendingRegistrations.Inc()
	}
	s.pending[sessionKey] = pending
	return nil
}

// Get retrieves the pending registration without consuming it.
func (s *MemorySessionStore) Get(ctx context.Context, sessionKey string) (*PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, ok := s.pending[sessionKey]
	if !ok {
		return nil, ErrNoRegistrationSession
	}
	return pending, nil
}

// Take retrieves and clears the pending registration atomically.
func (s *MemorySessionStore) Take(ctx context.Context, sessionKey string) (*PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[sessionKey]
	if !ok {
		return nil, ErrNoRegistrationSession
	}
	delete(s.pending, sessionKey)
	metrics.PendingRegistrations.Dec()
	return pending, nil
}

// Clear removes the pending registration, if any.
func (s *MemorySessionStore) Clear(ctx context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[sessionKey]; ok {
		delete(s.pending, sessionKey)
		metrics.PendingRegistrations.Dec()
	}
	return nil
}

// Count returns the number of pending registrations in the store.
func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}
