// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package middleware holds the HTTP middleware shared across route groups.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/backlinehq/backline/internal/logging"
)

// RequestID assigns every request a unique ID, honoring one supplied by an
// upstream proxy. The ID is echoed in the X-Request-ID response header and
// placed in the logging context so every log line of the request carries it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
