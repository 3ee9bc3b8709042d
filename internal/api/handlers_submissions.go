// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/backlinehq/backline/internal/intake"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/propagate"
)

// ListSubmissions handles GET /api/v1/submissions.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	subs, err := h.store.ListSubmissions(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, subs, start)
}

// GetSubmission handles GET /api/v1/submissions/{id}.
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sub, err := h.store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sub, start)
}

// GetComparison handles GET /api/v1/submissions/{id}/comparison. It returns
// the three-way field view the operator reviews before committing.
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cmp, err := h.reconcile.LoadComparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, cmp, start)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RejectSubmission handles POST /api/v1/submissions/{id}/reject.
func (h *Handler) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req rejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	sub, err := h.reconcile.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sub, start)
}

type commitRequest struct {
	// Overrides are the operator's explicit per-field choices, applied to
	// the freshly loaded comparison before validation.
	Overrides map[string]string `json:"overrides"`
}

// CommitSubmission handles POST /api/v1/submissions/{id}/commit. It reloads
// the comparison, applies the operator's field choices, validates and runs
// the propagation commit. The response carries the per-step result even on
// partial failure, so a retry after a store outage can be judged from it.
func (h *Handler) CommitSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req commitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmp, err := h.reconcile.LoadComparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	for name, value := range req.Overrides {
		field := models.FieldName(name)
		if !models.IsKnownField(field) {
			respondDomainError(w, r, fmt.Errorf("%w: %q", intake.ErrUnknownField, name))
			return
		}
		if err := cmp.SetField(field, value); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	rec, err := h.reconcile.Validate(cmp)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	result, err := h.propagate.Commit(r.Context(), rec)
	if err != nil {
		if errors.Is(err, propagate.ErrSubmissionRejected) {
			respondDomainError(w, r, err)
			return
		}
		// The partial result still matters to the operator; attach it.
		details := map[string]interface{}{"result": result}
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeStoreUnavailable, err.Error(), details)
		return
	}
	respondData(w, http.StatusOK, result, start)
}
