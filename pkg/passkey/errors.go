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

	"github.com/mensahe/passkey/pkg/identity"
)

// Sentinel errors for the registration ceremony. The transport layer maps
// each of these to a status code and a stable, user-displayable message;
// underlying causes stay attached for logs via errors.Unwrap.
var (
	// ErrInvalidIdentity is returned when the claimed user identifier does
	// not satisfy the handle policy. Aliased from pkg/identity so
	// errors.Is matches across both packages.
	ErrInvalidIdentity = identity.ErrInvalidIdentity

	// ErrConfiguration is returned when required relying-party settings are
	// unset. This is startup-blocking, never a per-request failure.
	ErrConfiguration = errors.New("relying party not configured")

	// ErrNoRegistrationSession is returned when no pending registration
	// exists for the session key. The caller may restart the ceremony.
	ErrNoRegistrationSession = errors.New("no registration session found")

	// ErrChallengeExpired is returned when the pending registration is
	// older than the configured max age. The pending state is cleared.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrMalformedCredential is returned when the submitted attestation
	// response cannot be parsed into a credential-response shape.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrChallengeMismatch is returned when the client-data challenge does
	// not match the stored challenge byte-for-byte.
	ErrChallengeMismatch = errors.New("challenge mismatch")

	// ErrOriginMismatch is returned when the origin embedded in the client
	// data is not an allowed relying-party origin.
	ErrOriginMismatch = errors.New("origin mismatch")

	// ErrAttestationInvalid is returned when cryptographic validation of
	// the attestation response fails.
	ErrAttestationInvalid = errors.New("attestation invalid")

	// ErrPersistence is returned when the credential sink or session
	// backend fails. The pending state is still cleared.
	ErrPersistence = errors.New("persistence failure")
)

// CeremonyError wraps a sentinel with the operation that produced it.
type CeremonyError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CeremonyError with the given operation and error.
func NewError(op string, err error) error {
	return &CeremonyError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsInvalidIdentity returns true if the error indicates a rejected handle.
func IsInvalidIdentity(err error) bool {
	return errors.Is(err, ErrInvalidIdentity)
}

// IsNoRegistrationSession returns true if no pending registration existed.
func IsNoRegistrationSession(err error) bool {
	return errors.Is(err, ErrNoRegistrationSession)
}

// IsChallengeExpired returns true if the pending registration had expired.
func IsChallengeExpired(err error) bool {
	return errors.Is(err, ErrChallengeExpired)
}

// IsRetryable returns true for failures that are resolved by restarting the
// whole ceremony rather than by the ceremony itself having failed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNoRegistrationSession) || errors.Is(err, ErrChallengeExpired)
}
