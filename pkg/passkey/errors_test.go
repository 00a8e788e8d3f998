// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mensahe/passkey/pkg/identity"
)

func TestCeremonyErrorWrapping(t *testing.T) {
	err := NewError("verify registration", ErrChallengeMismatch)

	assert.Equal(t, "verify registration: challenge mismatch", err.Error())
	assert.ErrorIs(t, err, ErrChallengeMismatch)
	assert.Equal(t, ErrChallengeMismatch, errors.Unwrap(err))
}

func TestCeremonyErrorWrapsCauseChain(t *testing.T) {
	cause := fmt.Errorf("%w: bad signature", ErrAttestationInvalid)
	err := NewError("verify attestation", cause)

	assert.ErrorIs(t, err, ErrAttestationInvalid)
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError("anything", nil))
}

func TestInvalidIdentityMatchesAcrossPackages(t *testing.T) {
	// The sentinel is shared with the identity package so callers can match
	// with either.
	_, err := identity.Validate("!")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
	assert.True(t, IsInvalidIdentity(err))
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNoRegistrationSession(NewError("op", ErrNoRegistrationSession)))
	assert.True(t, IsChallengeExpired(NewError("op", ErrChallengeExpired)))
	assert.True(t, IsRetryable(ErrNoRegistrationSession))
	assert.True(t, IsRetryable(ErrChallengeExpired))
	assert.False(t, IsRetryable(ErrChallengeMismatch))
	assert.False(t, IsRetryable(nil))
}
