// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "simple handle",
			input: "alice",
			want:  "alice",
		},
		{
			name:  "digits and underscore",
			input: "user_42",
			want:  "user_42",
		},
		{
			name:  "hyphenated",
			input: "jean-luc",
			want:  "jean-luc",
		},
		{
			name:  "minimum length",
			input: "abc",
			want:  "abc",
		},
		{
			name:  "maximum length",
			input: strings.Repeat("a", 32),
			want:  strings.Repeat("a", 32),
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  alice  ",
			want:  "alice",
		},
		{
			name:    "too short",
			input:   "ab",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", 33),
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "interior space",
			input:   "alice smith",
			wantErr: true,
		},
		{
			name:    "email shape rejected",
			input:   "alice@example.com",
			wantErr: true,
		},
		{
			name:    "unicode rejected",
			input:   "ålice",
			wantErr: true,
		},
		{
			name:    "path traversal rejected",
			input:   "../etc",
			wantErr: true,
		},
		{
			name:    "null byte rejected",
			input:   "alice\x00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRejectionsAreUniform(t *testing.T) {
	// Every rejection carries the same error, so responses cannot reveal
	// which check failed.
	inputs := []string{"", "ab", strings.Repeat("x", 100), "a b", "who?"}
	for _, input := range inputs {
		_, err := Validate(input)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidIdentity.Error(), err.Error())
	}
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "alice", SanitizeForLog("alice"))
	assert.Equal(t, "alicebob", SanitizeForLog("alice\n\rbob"))
	assert.Equal(t, "ab", SanitizeForLog("a\x00b\x7f"))

	long := SanitizeForLog(strings.Repeat("z", 1000))
	assert.True(t, strings.HasSuffix(long, "...[truncated]"))
	assert.LessOrEqual(t, len(long), 256+len("...[truncated]"))
}
