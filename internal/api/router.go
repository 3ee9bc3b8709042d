// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backlinehq/backline/internal/middleware"
)

// Router assembles the chi route tree.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter creates a router over the given handler set and middleware.
func NewRouter(h *Handler, mw *ChiMiddleware) *Router {
	return &Router{handler: h, mw: mw}
}

// Setup builds the full route tree. Operator routes and the anonymous
// public group carry separate rate limits; authentication is left to a
// fronting proxy.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(rt.mw.CORS())
	r.Use(APISecurityHeaders())

	h := rt.handler

	r.Route("/api/v1", func(r chi.Router) {
		// Operator surface.
		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimitAPI())

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", h.ListBookings)
				r.Post("/", h.CreateBooking)
				r.Get("/{id}", h.GetBooking)
				r.Delete("/{id}", h.DeleteBooking)
				r.Post("/{id}/link", h.IssueLink)
			})

			r.Route("/artists", func(r chi.Router) {
				r.Get("/", h.ListArtists)
				r.Post("/", h.CreateArtist)
				r.Get("/{id}", h.GetArtist)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", h.ListContacts)
				r.Post("/", h.CreateContact)
				r.Get("/{id}", h.GetContact)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/{bookingID}", h.GetContract)
				r.Post("/{bookingID}/flags/{flag}", h.CycleContractFlag)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.Get("/", h.ListSubmissions)
				r.Get("/{id}", h.GetSubmission)
				r.Get("/{id}/comparison", h.GetComparison)
				r.Post("/{id}/reject", h.RejectSubmission)
				r.Post("/{id}/commit", h.CommitSubmission)
			})
		})

		// Anonymous public surface, strictly rate limited.
		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimitPublic())
			r.Get("/public/forms/{token}", h.GetPublicForm)
			r.Post("/public/forms/{token}", h.SubmitPublicForm)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimitHealth())
			r.Get("/health/live", h.HealthLive)
			r.Get("/health/ready", h.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
