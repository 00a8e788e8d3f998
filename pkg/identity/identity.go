// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package identity validates claimed user identifiers before they enter
// the registration ceremony. The policy is a restricted handle charset:
// letters, digits, underscore and hyphen, 3 to 32 characters. All
// rejections return the same error so the response never reveals which
// specific check failed.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// Handle length bounds.
const (
	MinHandleLength = 3
	MaxHandleLength = 32
)

// ErrInvalidIdentity is returned for every rejected identifier. The
// message is stable and user-displayable by design of the validation
// contract; callers must not attach the failing input to it.
var ErrInvalidIdentity = errors.New("invalid username format")

// handlePattern is the accepted handle shape. Length is checked before the
// regexp runs so oversized input never reaches it.
var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate normalizes and validates a claimed user identifier. It trims
// surrounding whitespace, then enforces the handle policy. Pure function,
// no side effects.
func Validate(raw string) (string, error) {
	handle := strings.TrimSpace(raw)

	if len(handle) < MinHandleLength || len(handle) > MaxHandleLength {
		return "", ErrInvalidIdentity
	}

	if !handlePattern.MatchString(handle) {
		return "", ErrInvalidIdentity
	}

	return handle, nil
}

// SanitizeForLog strips control characters and bounds the length of an
// untrusted string so it is safe to include in log output.
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	if len(s) > 256 {
		s = s[:256] + "...[truncated]"
	}

	return s
}
