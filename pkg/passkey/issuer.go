// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/mensahe/passkey/pkg/identity"
)

// Issuer generates registration challenges and the options payload sent to
// the client. It is side-effect free: the pending registration is returned
// to the caller for storage, not stored here, which keeps issuance
// testable in isolation.
type Issuer struct {
	config *Config
}

// NewIssuer creates a challenge issuer for the given configuration. The
// configuration must already have defaults applied and be validated.
func NewIssuer(config *Config) *Issuer {
	return &Issuer{config: config}
}

// Issue generates a fresh challenge and opaque user id for the handle and
// builds the registration options. The handle must already satisfy the
// identity policy; a defensive re-check rejects anything that slipped
// through without revealing why.
func (i *Issuer) Issue(handle string) (*RegistrationOptions, *PendingRegistration, error) {
	handle, err := identity.Validate(handle)
	if err != nil {
		return nil, nil, err
	}

	if i.config.RPName == "" || i.config.RPID == "" {
		return nil, nil, NewError("issue challenge", ErrConfiguration)
	}

	challenge, err := randomBytes(i.config.ChallengeSize)
	if err != nil {
		return nil, nil, WrapError("generate challenge", err)
	}

	// Fresh per attempt, never derived from the handle, so issued options
	// cannot be correlated across registrations.
	userID, err := randomBytes(i.config.UserIDSize)
	if err != nil {
		return nil, nil, WrapError("generate user id", err)
	}

	user := UserIdentity{
		Handle: handle,
		ID:     userID,
	}

	options := &RegistrationOptions{
		Challenge:    base64.StdEncoding.EncodeToString(challenge),
		RelyingParty: i.config.RelyingParty(),
		User: UserOptions{
			ID:          base64.StdEncoding.EncodeToString(userID),
			Name:        handle,
			DisplayName: handle,
		},
		Timeout:     i.config.Timeout.Milliseconds(),
		Attestation: i.config.Attestation,
		AuthenticatorSelection: AuthenticatorSelection{
			AuthenticatorAttachment: i.config.AuthenticatorAttachment,
			UserVerification:        i.config.UserVerification,
		},
		PubKeyCredParams: i.config.CredentialParameters(),
	}

	pending := &PendingRegistration{
		Challenge: challenge,
		User:      user,
		CreatedAt: time.Now().UTC(),
	}

	return options, pending, nil
}

// randomBytes returns n bytes from the operating system's CSPRNG.
func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
