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

// GetContract handles GET /api/v1/contracts/{bookingID}.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	contract, err := h.bookings.GetContract(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, contract, start)
}

// CycleContractFlag handles POST /api/v1/contracts/{bookingID}/flags/{flag}.
// Each call advances the named flag one step through its cycle.
func (h *Handler) CycleContractFlag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	flag := models.ContractFlag(chi.URLParam(r, "flag"))
	if !models.IsKnownContractFlag(flag) {
		respondError(w, http.StatusBadRequest, models.ErrCodeInvalidRequest,
			"Unknown contract flag: "+string(flag), nil)
		return
	}

	contract, err := h.bookings.CycleContractFlag(r.Context(), chi.URLParam(r, "bookingID"), flag)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, contract, start)
}
