// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package passkey implements the relying-party half of the WebAuthn
// registration ceremony: issuing a challenge bound to a validated user
// identity, holding the pending (challenge, user) state per client
// session, and verifying the authenticator's attestation response.
//
// This package wraps the go-webauthn/webauthn library for attestation
// cryptography and provides:
//   - A side-effect-free challenge issuer producing the options payload
//   - Pluggable session storage for pending registrations (in-memory and
//     Redis implementations included)
//   - An attestation verifier with a tagged error taxonomy, so callers
//     can tell "restart the ceremony" failures from "the ceremony failed"
//   - A credential sink hand-off for durable storage
//   - Optional JWT issuance after successful registration
//
// # Lifecycle
//
// A pending registration is created by BeginRegistration, stored under
// the client's session key, and consumed exactly once by
// FinishRegistration. Every terminal outcome of verification, success or
// failure, clears the pending state so a challenge can never be replayed.
// Expiry is checked lazily at verification time; nothing here owns timers
// or background tasks.
//
// Authentication (login) ceremonies and durable credential storage are
// out of scope; the latter is consumed through the CredentialSink
// contract.
package passkey
