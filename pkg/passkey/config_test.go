// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := &Config{
		RPName:    "Mensahe",
		RPID:      "localhost",
		RPOrigins: []string{"http://localhost:8080"},
	}
	cfg.SetDefaults()
	return cfg
}

func TestConfigSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "none", cfg.Attestation)
	assert.Equal(t, "preferred", cfg.UserVerification)
	assert.Equal(t, "platform", cfg.AuthenticatorAttachment)
	assert.Equal(t, []string{"ES256", "RS256"}, cfg.Algorithms)
	assert.Equal(t, DefaultChallengeSize, cfg.ChallengeSize)
	assert.Equal(t, DefaultUserIDSize, cfg.UserIDSize)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		wantCfg bool // expect ErrConfiguration
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing rp name",
			mutate:  func(c *Config) { c.RPName = "" },
			wantErr: true,
			wantCfg: true,
		},
		{
			name:    "missing rp id",
			mutate:  func(c *Config) { c.RPID = "" },
			wantErr: true,
			wantCfg: true,
		},
		{
			name:    "missing origins",
			mutate:  func(c *Config) { c.RPOrigins = nil },
			wantErr: true,
			wantCfg: true,
		},
		{
			name:    "bad attestation",
			mutate:  func(c *Config) { c.Attestation = "maybe" },
			wantErr: true,
		},
		{
			name:    "bad user verification",
			mutate:  func(c *Config) { c.UserVerification = "sometimes" },
			wantErr: true,
		},
		{
			name:    "bad attachment",
			mutate:  func(c *Config) { c.AuthenticatorAttachment = "sideways" },
			wantErr: true,
		},
		{
			name:   "empty attachment allowed",
			mutate: func(c *Config) { c.AuthenticatorAttachment = "" },
		},
		{
			name:    "challenge too small",
			mutate:  func(c *Config) { c.ChallengeSize = 16 },
			wantErr: true,
		},
		{
			name:    "user id too small",
			mutate:  func(c *Config) { c.UserIDSize = 32 },
			wantErr: true,
		},
		{
			name:    "unsupported algorithm",
			mutate:  func(c *Config) { c.Algorithms = []string{"EdDSA"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantCfg {
				assert.ErrorIs(t, err, ErrConfiguration)
			}
		})
	}
}

func TestConfigPendingMaxAge(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 60*time.Second, cfg.PendingMaxAge())

	// A long ceremony timeout is capped.
	cfg.Timeout = time.Hour
	assert.Equal(t, 5*time.Minute, cfg.PendingMaxAge())

	cfg.Timeout = 0
	assert.Equal(t, 5*time.Minute, cfg.PendingMaxAge())
}

func TestConfigCredentialParameters(t *testing.T) {
	cfg := testConfig()
	params := cfg.CredentialParameters()

	require.Len(t, params, 2)
	assert.Equal(t, "public-key", params[0].Type)
	assert.Equal(t, -7, params[0].Algorithm)
	assert.Equal(t, -257, params[1].Algorithm)
}

func TestConfigProtocolParametersMatchAdvertised(t *testing.T) {
	// The list handed to the verification engine must mirror the wire
	// payload exactly, or the service would advertise algorithms it then
	// rejects.
	cfg := testConfig()

	advertised := cfg.CredentialParameters()
	accepted := cfg.protocolCredentialParameters()
	require.Len(t, accepted, len(advertised))

	for i, param := range accepted {
		assert.Equal(t, advertised[i].Algorithm, int(param.Algorithm))
		assert.Equal(t, "public-key", string(param.Type))
	}
}

func TestConfigRelyingParty(t *testing.T) {
	cfg := testConfig()
	rp := cfg.RelyingParty()
	assert.Equal(t, "Mensahe", rp.Name)
	assert.Equal(t, "localhost", rp.ID)
}
