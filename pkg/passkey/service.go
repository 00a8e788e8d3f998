// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"context"
	"fmt"

	"github.com/go-webauthn/webauthn/webauthn"
)

// Service runs the relying-party half of the passkey registration
// ceremony: challenge issuance bound to a client session, and attestation
// verification against the stored pending state.
type Service struct {
	engine   *webauthn.WebAuthn
	config   *Config
	issuer   *Issuer
	sessions SessionStore
	sink     CredentialSink
	tokens   TokenIssuer // optional
}

// ServiceParams contains dependencies for creating a registration service.
type ServiceParams struct {
	// Config is the registration configuration (required).
	Config *Config

	// SessionStore holds pending registrations per client session
	// (required).
	SessionStore SessionStore

	// CredentialSink receives verified credentials (required).
	CredentialSink CredentialSink

	// TokenIssuer optionally issues a token after successful
	// registration. If nil, no token is returned.
	TokenIssuer TokenIssuer
}

// NewService creates a registration service with the provided
// dependencies. Configuration problems are reported here, at startup,
// rather than per request.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.SessionStore == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.CredentialSink == nil {
		return nil, fmt.Errorf("credential sink is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	engine, err := webauthn.New(params.Config.toEngineConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn engine: %w", err)
	}

	return &Service{
		engine:   engine,
		config:   params.Config,
		issuer:   NewIssuer(params.Config),
		sessions: params.SessionStore,
		sink:     params.CredentialSink,
		tokens:   params.TokenIssuer,
	}, nil
}

// BeginRegistration validates the claimed username, issues a fresh
// challenge, and stores the pending registration for the session key. Any
// prior pending registration for the key is overwritten; concurrent
// registration attempts per session are last-request-wins.
func (s *Service) BeginRegistration(ctx context.Context, sessionKey, username string) (*RegistrationOptions, error) {
	options, pending, err := s.issuer.Issue(username)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, sessionKey, pending); err != nil {
		return nil, err
	}

	return options, nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}
