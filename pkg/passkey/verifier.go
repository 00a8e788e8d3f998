// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// FinishRegistration verifies a submitted attestation response against the
// pending registration for the session key. The pending state is consumed
// atomically up front, so every outcome of this call, success or failure,
// leaves the challenge unusable; a replayed submission sees
// ErrNoRegistrationSession.
//
// The submission is the raw JSON credential payload produced by the
// client's navigator.credentials.create call. Returns the verified
// credential and, when a token issuer is configured, a post-registration
// token.
func (s *Service) FinishRegistration(ctx context.Context, sessionKey string, submission []byte) (*VerifiedCredential, string, error) {
	pending, err := s.sessions.Take(ctx, sessionKey)
	if err != nil {
		return nil, "", err
	}

	if pending.ExpiredAt(time.Now(), s.config.PendingMaxAge()) {
		return nil, "", NewError("verify registration", ErrChallengeExpired)
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(submission))
	if err != nil {
		return nil, "", NewError("parse credential", fmt.Errorf("%w: %v", ErrMalformedCredential, err))
	}

	clientData := parsed.Response.CollectedClientData
	if clientData.Type != protocol.CreateCeremony {
		return nil, "", NewError("parse credential", fmt.Errorf("%w: unexpected ceremony type", ErrMalformedCredential))
	}

	submittedChallenge, err := base64.RawURLEncoding.DecodeString(clientData.Challenge)
	if err != nil {
		return nil, "", NewError("parse credential", fmt.Errorf("%w: undecodable challenge", ErrMalformedCredential))
	}
	if !bytes.Equal(submittedChallenge, pending.Challenge) {
		return nil, "", NewError("verify registration", ErrChallengeMismatch)
	}

	if !s.originAllowed(clientData.Origin) {
		return nil, "", NewError("verify registration", ErrOriginMismatch)
	}

	session := webauthn.SessionData{
		Challenge:        base64.RawURLEncoding.EncodeToString(pending.Challenge),
		UserID:           pending.User.ID,
		Expires:          pending.CreatedAt.Add(s.config.PendingMaxAge()),
		UserVerification: s.config.userVerificationRequirement(),
		CredParams:       s.config.protocolCredentialParameters(),
	}

	cred, err := s.engine.CreateCredential(ceremonyUser{identity: pending.User}, session, parsed)
	if err != nil {
		// The engine's message goes into the wrapped cause for logs; the
		// sentinel is what reaches the client.
		return nil, "", NewError("verify attestation", fmt.Errorf("%w: %v", ErrAttestationInvalid, err))
	}

	verified := newVerifiedCredential(pending, cred)

	if err := s.sink.Save(ctx, verified); err != nil {
		// The pending state is already consumed, so the challenge cannot
		// be replayed against a retried save.
		return nil, "", NewError("save credential", fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	token := ""
	if s.tokens != nil {
		token, err = s.tokens.Issue(ctx, pending.User)
		if err != nil {
			return nil, "", WrapError("issue token", err)
		}
	}

	return verified, token, nil
}

// originAllowed reports whether the client-data origin is one of the
// configured relying-party origins.
func (s *Service) originAllowed(origin string) bool {
	for _, allowed := range s.config.RPOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
