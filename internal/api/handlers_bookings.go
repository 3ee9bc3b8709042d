// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/backlinehq/backline/internal/booking"
)

type createBookingRequest struct {
	ArtistID  string    `json:"artist_id" validate:"required"`
	ContactID string    `json:"contact_id" validate:"required"`
	Venue     string    `json:"venue" validate:"required,max=200"`
	Date      time.Time `json:"date" validate:"required"`
	Notes     string    `json:"notes" validate:"max=2000"`
}

// CreateBooking handles POST /api/v1/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	b, err := h.bookings.CreateBooking(r.Context(), booking.CreateBookingParams{
		ArtistID:  req.ArtistID,
		ContactID: req.ContactID,
		Venue:     req.Venue,
		Date:      req.Date,
		Notes:     req.Notes,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, b, start)
}

// GetBooking handles GET /api/v1/bookings/{id}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	b, err := h.bookings.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, b, start)
}

// ListBookings handles GET /api/v1/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bookings, err := h.bookings.ListBookings(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, bookings, start)
}

// DeleteBooking handles DELETE /api/v1/bookings/{id}.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.bookings.DeleteBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, start)
}

// IssueLink handles POST /api/v1/bookings/{id}/link. Issuing twice returns
// the same link, so the operator UI can always show the shareable token.
func (h *Handler) IssueLink(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	link, err := h.links.Issue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, link, start)
}
