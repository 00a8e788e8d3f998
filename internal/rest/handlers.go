// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mensahe/passkey/pkg/identity"
	"github.com/mensahe/passkey/pkg/metrics"
	"github.com/mensahe/passkey/pkg/passkey"
)

// Handler serves the passkey registration endpoints.
type Handler struct {
	service *passkey.Service
	logger  *slog.Logger
}

// NewHandler creates the registration handler.
func NewHandler(service *passkey.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// BeginRegistration handles POST /api/v1/passkey/registration/begin. It
// issues the credential creation options for the claimed username and
// binds the challenge to the caller's session.
func (h *Handler) BeginRegistration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req BeginRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, metrics.StepBegin, start, passkey.NewError("decode request", passkey.ErrInvalidIdentity))
		return
	}

	sessionKey := SessionKeyFromContext(r.Context())
	options, err := h.service.BeginRegistration(r.Context(), sessionKey, req.Username)
	if err != nil {
		h.logger.Warn("registration begin rejected",
			"username", identity.SanitizeForLog(req.Username),
			"error", err)
		h.reject(w, metrics.StepBegin, start, err)
		return
	}

	h.logger.Info("registration challenge issued",
		"username", identity.SanitizeForLog(req.Username))
	metrics.RecordCeremony(metrics.StepBegin, metrics.StatusSuccess, time.Since(start))
	writeJSON(w, http.StatusOK, options)
}

// FinishRegistration handles POST /api/v1/passkey/registration/finish. It
// verifies the submitted attestation against the pending registration for
// the caller's session. The pending state is consumed whatever the
// outcome, so a failed or replayed submission requires a fresh begin.
func (h *Handler) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req FinishRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, metrics.StepFinish, start, passkey.NewError("decode request", passkey.ErrMalformedCredential))
		return
	}
	if len(req.Credential) == 0 {
		h.reject(w, metrics.StepFinish, start, passkey.NewError("decode request", passkey.ErrMalformedCredential))
		return
	}

	sessionKey := SessionKeyFromContext(r.Context())
	credential, token, err := h.service.FinishRegistration(r.Context(), sessionKey, req.Credential)
	if err != nil {
		h.logger.Warn("registration finish rejected",
			"username", identity.SanitizeForLog(req.Username),
			"error", err)
		h.reject(w, metrics.StepFinish, start, err)
		return
	}

	h.logger.Info("passkey registered",
		"username", credential.UserHandle,
		"credential_id", credential.ID,
		"attestation", credential.AttestationType)
	metrics.RecordCeremony(metrics.StepFinish, metrics.StatusSuccess, time.Since(start))

	writeJSON(w, http.StatusOK, FinishRegistrationResponse{
		Success:  true,
		Message:  "Passkey registration completed successfully",
		Username: credential.UserHandle,
		Token:    token,
	})
}

// reject writes the error response for a failed ceremony step and records
// the failure metrics.
func (h *Handler) reject(w http.ResponseWriter, step string, start time.Time, err error) {
	status, message, reason := classifyError(err)
	metrics.RecordCeremony(step, metrics.StatusError, time.Since(start))
	metrics.RecordFailure(step, reason)
	writeJSON(w, status, ErrorResponse{Error: message})
}

// classifyError maps a ceremony error to a status code, a stable client
// message, and a metrics reason label. Every ceremony failure is a client
// problem from the protocol's point of view, so everything maps to 400;
// raw library and backend error text never reaches the client.
func classifyError(err error) (status int, message, reason string) {
	switch {
	case errors.Is(err, passkey.ErrInvalidIdentity):
		return http.StatusBadRequest, "Invalid username format", "invalid_identity"
	case errors.Is(err, passkey.ErrNoRegistrationSession):
		return http.StatusBadRequest, "No registration session found", "no_session"
	case errors.Is(err, passkey.ErrChallengeExpired):
		return http.StatusBadRequest, "Challenge expired, please restart registration", "challenge_expired"
	case errors.Is(err, passkey.ErrMalformedCredential):
		return http.StatusBadRequest, "Malformed credential", "malformed_credential"
	case errors.Is(err, passkey.ErrChallengeMismatch):
		return http.StatusBadRequest, "Challenge verification failed", "challenge_mismatch"
	case errors.Is(err, passkey.ErrOriginMismatch):
		return http.StatusBadRequest, "Origin not allowed", "origin_mismatch"
	case errors.Is(err, passkey.ErrAttestationInvalid):
		return http.StatusBadRequest, "Attestation verification failed", "attestation_invalid"
	case errors.Is(err, passkey.ErrPersistence):
		return http.StatusBadRequest, "Registration could not be completed", "persistence"
	default:
		return http.StatusBadRequest, "Registration failed", "unknown"
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
