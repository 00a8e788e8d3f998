// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// RelyingParty identifies the application performing the ceremony.
// Constructed once from configuration at service start; immutable.
type RelyingParty struct {
	// Name is the human-readable application name shown by authenticators.
	Name string `json:"name"`

	// ID is the relying-party identifier, typically the domain name.
	ID string `json:"id"`
}

// UserIdentity binds a validated handle to an opaque per-attempt user id.
// The id is generated fresh for every registration attempt and is never
// derived from the handle, so issued options cannot be correlated. Without
// a persistence layer it is not guaranteed globally unique; that is a
// documented limitation of the registration-only service.
type UserIdentity struct {
	// Handle is the validated user identifier (username).
	Handle string `json:"handle"`

	// ID is the opaque WebAuthn user handle, at least 64 bytes.
	ID []byte `json:"id"`
}

// PendingRegistration is the single-slot per-session ceremony state held
// between the begin and finish steps. It is created by the issuer, stored
// by the session store, and consumed exactly once by the verifier.
type PendingRegistration struct {
	// Challenge is the raw challenge bytes, at least 32 bytes.
	Challenge []byte `json:"challenge"`

	// User is the identity the challenge was issued for.
	User UserIdentity `json:"user"`

	// CreatedAt is when the challenge was issued. Expiry is checked
	// lazily against this timestamp; the store does not enforce it.
	CreatedAt time.Time `json:"created_at"`
}

// ExpiredAt reports whether the pending registration is older than maxAge
// at the given instant.
func (p *PendingRegistration) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(p.CreatedAt) > maxAge
}

// RegistrationOptions is the wire payload returned by the begin step. The
// shape follows PublicKeyCredentialCreationOptions as consumed by the
// browser extension; binary fields are standard base64.
type RegistrationOptions struct {
	Challenge              string                 `json:"challenge"`
	RelyingParty           RelyingParty           `json:"rp"`
	User                   UserOptions            `json:"user"`
	Timeout                int64                  `json:"timeout"`
	Attestation            string                 `json:"attestation"`
	AuthenticatorSelection AuthenticatorSelection `json:"authenticatorSelection"`
	PubKeyCredParams       []CredentialParameter  `json:"pubKeyCredParams"`
}

// UserOptions is the user entity inside RegistrationOptions.
type UserOptions struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// AuthenticatorSelection constrains which authenticators may respond.
type AuthenticatorSelection struct {
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`
	UserVerification        string `json:"userVerification"`
}

// CredentialParameter advertises an accepted public-key algorithm.
type CredentialParameter struct {
	Type      string `json:"type"`
	Algorithm int    `json:"alg"`
}

// VerifiedCredential is the outcome of a successful ceremony, handed to
// the credential sink. Beyond that hand-off the service treats it as
// opaque.
type VerifiedCredential struct {
	// ID is the credential identifier assigned by the authenticator.
	ID []byte `json:"id"`

	// UserID is the opaque user handle the credential belongs to.
	UserID []byte `json:"user_id"`

	// UserHandle is the validated username the ceremony was bound to.
	UserHandle string `json:"user_handle"`

	// PublicKey is the credential's public key in COSE format.
	PublicKey []byte `json:"public_key"`

	// AttestationType indicates the attestation format conveyed.
	AttestationType string `json:"attestation_type"`

	// Transport lists the transports reported by the authenticator.
	Transport []protocol.AuthenticatorTransport `json:"transport,omitempty"`

	// SignCount is the signature counter at registration time.
	SignCount uint32 `json:"sign_count"`

	// Attachment indicates how the authenticator is attached.
	Attachment protocol.AuthenticatorAttachment `json:"attachment,omitempty"`

	// CreatedAt is when the credential was verified.
	CreatedAt time.Time `json:"created_at"`
}

// newVerifiedCredential builds a VerifiedCredential from the validated
// go-webauthn credential and the pending state it was verified against.
func newVerifiedCredential(pending *PendingRegistration, cred *webauthn.Credential) *VerifiedCredential {
	return &VerifiedCredential{
		ID:              cred.ID,
		UserID:          pending.User.ID,
		UserHandle:      pending.User.Handle,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		Transport:       cred.Transport,
		SignCount:       cred.Authenticator.SignCount,
		Attachment:      cred.Authenticator.Attachment,
		CreatedAt:       time.Now().UTC(),
	}
}

// ceremonyUser adapts a pending registration to the go-webauthn user
// contract for credential creation. The service has no durable user model;
// the identity only lives for the duration of one ceremony.
type ceremonyUser struct {
	identity UserIdentity
}

// WebAuthnID returns the opaque user handle.
func (u ceremonyUser) WebAuthnID() []byte {
	return u.identity.ID
}

// WebAuthnName returns the username.
func (u ceremonyUser) WebAuthnName() string {
	return u.identity.Handle
}

// WebAuthnDisplayName returns the display name (same as the username).
func (u ceremonyUser) WebAuthnDisplayName() string {
	return u.identity.Handle
}

// WebAuthnCredentials returns no credentials; registration only.
func (u ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return nil
}
