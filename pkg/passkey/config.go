// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
)

const (
	// DefaultChallengeSize is the minimum challenge length in bytes.
	DefaultChallengeSize = 32

	// DefaultUserIDSize is the minimum opaque user-id length in bytes.
	DefaultUserIDSize = 64

	// maxPendingAgeCap bounds how long an abandoned pending registration
	// can remain consumable, regardless of the ceremony timeout.
	maxPendingAgeCap = 5 * time.Minute
)

// Config configures the passkey registration service. It is constructed
// once at startup and passed into the issuer and verifier; there is no
// ambient global configuration.
type Config struct {
	// RPName is the human-readable name of the relying party.
	// Example: "Mensahe"
	RPName string `yaml:"rp_name" json:"rp_name"`

	// RPID is the relying-party identifier, typically the domain name.
	// Example: "mensahe.app"
	RPID string `yaml:"rp_id" json:"rp_id"`

	// RPOrigins are the allowed web origins for ceremonies.
	// Example: []string{"https://mensahe.app"}
	RPOrigins []string `yaml:"rp_origins" json:"rp_origins"`

	// Timeout is the ceremony timeout advertised to the client.
	// Default: 60s (60000 ms on the wire).
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Attestation is the attestation conveyance preference.
	// Options: "none", "indirect", "direct", "enterprise"
	// Default: "none"
	Attestation string `yaml:"attestation" json:"attestation"`

	// UserVerification is the user verification requirement.
	// Options: "required", "preferred", "discouraged"
	// Default: "preferred"
	UserVerification string `yaml:"user_verification" json:"user_verification"`

	// AuthenticatorAttachment limits the type of authenticators allowed.
	// Options: "platform", "cross-platform", "" (any)
	// Default: "platform"
	AuthenticatorAttachment string `yaml:"authenticator_attachment" json:"authenticator_attachment"`

	// Algorithms lists the accepted public-key algorithms, in preference
	// order. Supported: "ES256" (COSE -7), "RS256" (COSE -257). Both are
	// validated by the verification engine, so the advertised list always
	// matches what the verifier accepts.
	// Default: ["ES256", "RS256"]
	Algorithms []string `yaml:"algorithms" json:"algorithms"`

	// ChallengeSize is the challenge length in bytes. Default: 32.
	ChallengeSize int `yaml:"challenge_size" json:"challenge_size"`

	// UserIDSize is the opaque user-id length in bytes. Default: 64.
	UserIDSize int `yaml:"user_id_size" json:"user_id_size"`

	// Debug enables debug logging in the verification engine.
	Debug bool `yaml:"debug" json:"debug"`
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Attestation == "" {
		c.Attestation = "none"
	}
	if c.UserVerification == "" {
		c.UserVerification = "preferred"
	}
	if c.AuthenticatorAttachment == "" {
		c.AuthenticatorAttachment = "platform"
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{"ES256", "RS256"}
	}
	if c.ChallengeSize == 0 {
		c.ChallengeSize = DefaultChallengeSize
	}
	if c.UserIDSize == 0 {
		c.UserIDSize = DefaultUserIDSize
	}
}

// Validate validates the configuration and returns an error if invalid.
// Missing relying-party identity is ErrConfiguration and should block
// startup rather than surface per request.
func (c *Config) Validate() error {
	if c.RPName == "" {
		return WrapError("validate config", fmt.Errorf("%w: RPName is required", ErrConfiguration))
	}
	if c.RPID == "" {
		return WrapError("validate config", fmt.Errorf("%w: RPID is required", ErrConfiguration))
	}
	if len(c.RPOrigins) == 0 {
		return WrapError("validate config", fmt.Errorf("%w: at least one RPOrigin is required", ErrConfiguration))
	}

	switch c.Attestation {
	case "none", "indirect", "direct", "enterprise":
	default:
		return fmt.Errorf("invalid attestation preference: %s", c.Attestation)
	}

	switch c.UserVerification {
	case "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("invalid user verification: %s", c.UserVerification)
	}

	switch c.AuthenticatorAttachment {
	case "", "platform", "cross-platform":
	default:
		return fmt.Errorf("invalid authenticator attachment: %s", c.AuthenticatorAttachment)
	}

	if c.ChallengeSize < DefaultChallengeSize {
		return fmt.Errorf("challenge size must be at least %d bytes", DefaultChallengeSize)
	}
	if c.UserIDSize < DefaultUserIDSize {
		return fmt.Errorf("user id size must be at least %d bytes", DefaultUserIDSize)
	}

	for _, alg := range c.Algorithms {
		if _, err := coseAlgorithm(alg); err != nil {
			return err
		}
	}

	return nil
}

// RelyingParty returns the relying-party identity from the config.
func (c *Config) RelyingParty() RelyingParty {
	return RelyingParty{Name: c.RPName, ID: c.RPID}
}

// PendingMaxAge is how long a pending registration may be consumed after
// issuance: the ceremony timeout, capped at a fixed upper bound so an
// abandoned challenge cannot be redeemed far in the future.
func (c *Config) PendingMaxAge() time.Duration {
	if c.Timeout > 0 && c.Timeout < maxPendingAgeCap {
		return c.Timeout
	}
	return maxPendingAgeCap
}

// CredentialParameters returns the advertised algorithm list in wire form.
func (c *Config) CredentialParameters() []CredentialParameter {
	params := make([]CredentialParameter, 0, len(c.Algorithms))
	for _, alg := range c.Algorithms {
		id, err := coseAlgorithm(alg)
		if err != nil {
			continue
		}
		params = append(params, CredentialParameter{
			Type:      "public-key",
			Algorithm: int(id),
		})
	}
	return params
}

// protocolCredentialParameters returns the advertised algorithms in the
// form the verification engine checks the attested public key against.
// Must stay in lockstep with CredentialParameters so the wire payload
// never advertises an algorithm the verifier would reject.
func (c *Config) protocolCredentialParameters() []protocol.CredentialParameter {
	params := make([]protocol.CredentialParameter, 0, len(c.Algorithms))
	for _, alg := range c.Algorithms {
		id, err := coseAlgorithm(alg)
		if err != nil {
			continue
		}
		params = append(params, protocol.CredentialParameter{
			Type:      protocol.PublicKeyCredentialType,
			Algorithm: id,
		})
	}
	return params
}

// toEngineConfig converts the Config to the go-webauthn configuration.
func (c *Config) toEngineConfig() *webauthn.Config {
	cfg := &webauthn.Config{
		RPID:          c.RPID,
		RPDisplayName: c.RPName,
		RPOrigins:     c.RPOrigins,
		Debug:         c.Debug,
	}

	if c.Timeout > 0 {
		cfg.Timeouts = webauthn.TimeoutsConfig{
			Registration: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    c.Timeout,
				TimeoutUVD: c.Timeout,
			},
			Login: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    c.Timeout,
				TimeoutUVD: c.Timeout,
			},
		}
	}

	switch c.Attestation {
	case "none":
		cfg.AttestationPreference = protocol.PreferNoAttestation
	case "indirect":
		cfg.AttestationPreference = protocol.PreferIndirectAttestation
	case "direct":
		cfg.AttestationPreference = protocol.PreferDirectAttestation
	case "enterprise":
		cfg.AttestationPreference = protocol.PreferEnterpriseAttestation
	}

	cfg.AuthenticatorSelection = protocol.AuthenticatorSelection{}

	switch c.UserVerification {
	case "required":
		cfg.AuthenticatorSelection.UserVerification = protocol.VerificationRequired
	case "preferred":
		cfg.AuthenticatorSelection.UserVerification = protocol.VerificationPreferred
	case "discouraged":
		cfg.AuthenticatorSelection.UserVerification = protocol.VerificationDiscouraged
	}

	switch c.AuthenticatorAttachment {
	case "platform":
		cfg.AuthenticatorSelection.AuthenticatorAttachment = protocol.Platform
	case "cross-platform":
		cfg.AuthenticatorSelection.AuthenticatorAttachment = protocol.CrossPlatform
	}

	return cfg
}

// userVerificationRequirement returns the configured requirement in
// go-webauthn form for session data.
func (c *Config) userVerificationRequirement() protocol.UserVerificationRequirement {
	switch c.UserVerification {
	case "required":
		return protocol.VerificationRequired
	case "discouraged":
		return protocol.VerificationDiscouraged
	default:
		return protocol.VerificationPreferred
	}
}

// coseAlgorithm maps an algorithm name to its COSE identifier.
func coseAlgorithm(name string) (webauthncose.COSEAlgorithmIdentifier, error) {
	switch name {
	case "ES256":
		return webauthncose.AlgES256, nil
	case "RS256":
		return webauthncose.AlgRS256, nil
	default:
		return 0, fmt.Errorf("unsupported algorithm: %s", name)
	}
}
