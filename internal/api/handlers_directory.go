// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/backlinehq/backline/internal/validation"
)

type createArtistRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Genre string `json:"genre" validate:"max=100"`
}

type createContactRequest struct {
	Identity string `json:"identity" validate:"required,max=200"`
}

// validateRequest runs struct validation and writes the error response on
// failure.
func validateRequest(w http.ResponseWriter, req interface{}) bool {
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// CreateArtist handles POST /api/v1/artists.
func (h *Handler) CreateArtist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createArtistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	artist, err := h.bookings.CreateArtist(r.Context(), req.Name, req.Genre)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, artist, start)
}

// GetArtist handles GET /api/v1/artists/{id}.
func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	artist, err := h.bookings.GetArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, artist, start)
}

// ListArtists handles GET /api/v1/artists.
func (h *Handler) ListArtists(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	artists, err := h.bookings.ListArtists(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, artists, start)
}

// CreateContact handles POST /api/v1/contacts.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	contact, err := h.bookings.CreateContact(r.Context(), req.Identity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, contact, start)
}

// GetContact handles GET /api/v1/contacts/{id}.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	contact, err := h.bookings.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, contact, start)
}

// ListContacts handles GET /api/v1/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	contacts, err := h.bookings.ListContacts(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, contacts, start)
}
