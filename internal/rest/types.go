// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import "encoding/json"

// BeginRegistrationRequest is the body of POST /api/v1/passkey/registration/begin.
type BeginRegistrationRequest struct {
	Username string `json:"username"`
}

// FinishRegistrationRequest is the body of POST /api/v1/passkey/registration/finish.
// Credential carries the raw navigator.credentials.create result; it is
// passed through to the verifier without interpretation here.
type FinishRegistrationRequest struct {
	Username   string          `json:"username"`
	Credential json.RawMessage `json:"credential"`
}

// FinishRegistrationResponse is the success body of the finish endpoint.
type FinishRegistrationResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// ErrorResponse is the body of every rejected request. Error is a stable,
// user-displayable message; underlying causes stay in the server log.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
