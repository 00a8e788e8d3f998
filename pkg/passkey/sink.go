// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"context"
	"encoding/hex"
	"sync"
)

// CredentialSink receives verified credentials for durable storage. The
// service only specifies the hand-off; storage design is out of scope.
// Production deployments must supply a durable, queryable implementation.
type CredentialSink interface {
	// Save persists a verified credential.
	Save(ctx context.Context, cred *VerifiedCredential) error
}

// MemoryCredentialSink is an in-memory CredentialSink for development and
// testing. It is not durable and must not back a production deployment.
type MemoryCredentialSink struct {
	mu    sync.RWMutex
	creds map[string]*VerifiedCredential
}

// NewMemoryCredentialSink creates a new in-memory credential sink.
func NewMemoryCredentialSink() *MemoryCredentialSink {
	return &MemoryCredentialSink{
		creds: make(map[string]*VerifiedCredential),
	}
}

// Save persists a verified credential.
func (s *MemoryCredentialSink) Save(ctx context.Context, cred *VerifiedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[hex.EncodeToString(cred.ID)] = cred
	return nil
}

// Get retrieves a saved credential by its ID, or nil.
func (s *MemoryCredentialSink) Get(credID []byte) *VerifiedCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds[hex.EncodeToString(credID)]
}

// Count returns the number of saved credentials.
func (s *MemoryCredentialSink) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
