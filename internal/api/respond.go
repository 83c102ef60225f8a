// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package api is the read-only query surface over the telemetry store:
// health, latest-value, history, and overview endpoints plus the polling
// dashboard. Handlers are stateless; every request re-reads a consistent
// snapshot from the store.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/telegate/telegate/internal/logging"
	"github.com/telegate/telegate/internal/models"
)

// Error codes returned by the query API.
const (
	errCodeNotFound        = "NOT_FOUND"
	errCodeInvalidArgument = "INVALID_ARGUMENT"
	errCodeInternal        = "INTERNAL_ERROR"
)

// respondJSON serializes v directly as the response body. The store has
// already copied everything out, so no lock is held while marshaling.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

// respondError writes a typed error body. Query errors are client-visible
// not-found or invalid-argument results, never bare empty successes.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Error: models.APIError{Code: code, Message: message},
	})
}
