// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncbor"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// MockAuthenticator simulates the client half of a registration ceremony
// for testing. It produces raw attestation submissions, in the same JSON
// shape a browser would post, that pass the verifier's structural and
// cryptographic checks.
type MockAuthenticator struct {
	// AAGUID is the authenticator's unique identifier (16 bytes).
	AAGUID []byte

	// CredentialID is the credential identifier.
	CredentialID []byte

	// UserPresent controls the UP flag.
	UserPresent bool

	// UserVerified controls the UV flag.
	UserVerified bool

	privateKey *ecdsa.PrivateKey
	rpIDHash   []byte
}

// MockAuthenticatorOption configures a MockAuthenticator.
type MockAuthenticatorOption func(*MockAuthenticator)

// WithCredentialID sets a custom credential ID.
func WithCredentialID(credID []byte) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.CredentialID = credID
	}
}

// WithUserPresent sets the UP flag.
func WithUserPresent(up bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.UserPresent = up
	}
}

// WithUserVerified sets the UV flag.
func WithUserVerified(uv bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.UserVerified = uv
	}
}

// NewMockAuthenticator creates a mock authenticator scoped to the given
// relying-party ID.
func NewMockAuthenticator(rpID string, opts ...MockAuthenticatorOption) (*MockAuthenticator, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	aaguid := make([]byte, 16)
	if _, err := rand.Read(aaguid); err != nil {
		return nil, err
	}

	credID := make([]byte, 32)
	if _, err := rand.Read(credID); err != nil {
		return nil, err
	}

	rpIDHash := sha256.Sum256([]byte(rpID))

	m := &MockAuthenticator{
		AAGUID:       aaguid,
		CredentialID: credID,
		UserPresent:  true,
		UserVerified: true,
		privateKey:   privateKey,
		rpIDHash:     rpIDHash[:],
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// PublicKeyBytes returns the public key in COSE format.
func (m *MockAuthenticator) PublicKeyBytes() ([]byte, error) {
	pubKey := m.privateKey.Public().(*ecdsa.PublicKey)

	coseKey := map[int]interface{}{
		1:  2,                          // kty: EC2
		3:  int(webauthncose.AlgES256), // alg: ES256
		-1: 1,                          // crv: P-256
		-2: pubKey.X.Bytes(),           // x coordinate
		-3: pubKey.Y.Bytes(),           // y coordinate
	}

	return webauthncbor.Marshal(coseKey)
}

// AttestationSubmission builds the raw JSON body a client would post to
// the finish endpoint for the given challenge and origin, with a "none"
// attestation statement.
func (m *MockAuthenticator) AttestationSubmission(challenge []byte, origin string) ([]byte, error) {
	authData, err := m.buildAuthenticatorData()
	if err != nil {
		return nil, err
	}

	attestationObject, err := webauthncbor.Marshal(map[string]interface{}{
		"authData": authData,
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
	})
	if err != nil {
		return nil, err
	}

	clientDataJSON := m.buildClientDataJSON(challenge, origin)
	credentialID := base64.RawURLEncoding.EncodeToString(m.CredentialID)

	response := protocol.CredentialCreationResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{
				ID:   credentialID,
				Type: "public-key",
			},
			RawID:                  m.CredentialID,
			ClientExtensionResults: protocol.AuthenticationExtensionsClientOutputs{},
		},
		AttestationResponse: protocol.AuthenticatorAttestationResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{
				ClientDataJSON: clientDataJSON,
			},
			AttestationObject: attestationObject,
			Transports:        []string{"internal"},
		},
	}

	return json.Marshal(response)
}

// buildAuthenticatorData builds the authenticator data with attested
// credential data, as laid out by the WebAuthn spec.
func (m *MockAuthenticator) buildAuthenticatorData() ([]byte, error) {
	var buf bytes.Buffer

	// rpIdHash (32 bytes)
	buf.Write(m.rpIDHash)

	// flags (1 byte): UP, UV, AT
	var flags byte
	if m.UserPresent {
		flags |= 0x01
	}
	if m.UserVerified {
		flags |= 0x04
	}
	flags |= 0x40
	buf.WriteByte(flags)

	// signCount (4 bytes, big-endian)
	signCount := make([]byte, 4)
	binary.BigEndian.PutUint32(signCount, 0)
	buf.Write(signCount)

	// AAGUID (16 bytes)
	buf.Write(m.AAGUID)

	// Credential ID length (2 bytes, big-endian) and ID
	credIDLen := make([]byte, 2)
	binary.BigEndian.PutUint16(credIDLen, uint16(len(m.CredentialID)))
	buf.Write(credIDLen)
	buf.Write(m.CredentialID)

	// Credential public key (COSE format)
	pubKeyBytes, err := m.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	buf.Write(pubKeyBytes)

	return buf.Bytes(), nil
}

// buildClientDataJSON builds the collected client data for a create
// ceremony.
func (m *MockAuthenticator) buildClientDataJSON(challenge []byte, origin string) []byte {
	clientData := struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
		Origin    string `json:"origin"`
	}{
		Type:      "webauthn.create",
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    origin,
	}

	jsonBytes, _ := json.Marshal(clientData)
	return jsonBytes
}
