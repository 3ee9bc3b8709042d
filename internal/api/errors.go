// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"errors"
	"net/http"

	"github.com/backlinehq/backline/internal/intake"
	"github.com/backlinehq/backline/internal/links"
	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/propagate"
	"github.com/backlinehq/backline/internal/reconcile"
	"github.com/backlinehq/backline/internal/store"
)

// respondDomainError maps domain errors to HTTP status and machine-readable
// codes. Anything unmapped is an internal error and gets logged with its
// cause; the client sees only a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *reconcile.ValidationError
	if errors.As(err, &verr) {
		details := map[string]interface{}{}
		if len(verr.Missing) > 0 {
			details["missing"] = verr.Missing
		}
		if len(verr.Conflicts) > 0 {
			details["conflicts"] = verr.Conflicts
		}
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, verr.Error(), details)
		return
	}

	switch {
	case errors.Is(err, intake.ErrUnknownField):
		respondError(w, http.StatusBadRequest, models.ErrCodeUnknownField, err.Error(), nil)
	case errors.Is(err, links.ErrInvalidToken):
		respondError(w, http.StatusNotFound, models.ErrCodeInvalidToken, "Link token not recognized", nil)
	case errors.Is(err, links.ErrAlreadyUsed):
		respondError(w, http.StatusConflict, models.ErrCodeAlreadyUsed, "This form has already been submitted", nil)
	case errors.Is(err, links.ErrExpired):
		respondError(w, http.StatusGone, models.ErrCodeLinkExpired, "This link has expired", nil)
	case errors.Is(err, reconcile.ErrNotPending):
		respondError(w, http.StatusConflict, models.ErrCodeConflict, "Submission has already been reviewed", nil)
	case errors.Is(err, propagate.ErrSubmissionRejected):
		respondError(w, http.StatusConflict, models.ErrCodeConflict, "Submission was rejected and cannot be committed", nil)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Resource not found", nil)
	case errors.Is(err, store.ErrAlreadyExists):
		respondError(w, http.StatusConflict, models.ErrCodeConflict, "Resource already exists", nil)
	case errors.Is(err, store.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeStoreUnavailable, "Store unavailable, retry later", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("Unhandled error in request")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Internal error", nil)
	}
}
