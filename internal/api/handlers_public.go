// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/backlinehq/backline/internal/models"
)

// publicFormResponse is everything an anonymous submitter gets to see:
// which engagement the form is for and which fields it accepts. Canonical
// contact data never crosses this boundary.
type publicFormResponse struct {
	BookingSummary string             `json:"booking_summary"`
	Fields         []models.FieldName `json:"fields"`
}

// GetPublicForm handles GET /api/v1/public/forms/{token}.
func (h *Handler) GetPublicForm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	link, err := h.intake.Describe(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, publicFormResponse{
		BookingSummary: link.BookingSummary,
		Fields:         models.KnownFields(),
	}, start)
}

type submitFormRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

// SubmitPublicForm handles POST /api/v1/public/forms/{token}. The response
// confirms acceptance and nothing more; submission internals stay on the
// operator side.
func (h *Handler) SubmitPublicForm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req submitFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	fields := make(map[models.FieldName]string, len(req.Fields))
	for name, value := range req.Fields {
		fields[models.FieldName(name)] = value
	}

	if _, err := h.intake.Submit(r.Context(), chi.URLParam(r, "token"), fields); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"result": "accepted"}, start)
}
