// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package api is the HTTP surface: the operator API and the public intake
// form endpoints, on a chi router with per-group rate limits.
package api

import (
	"github.com/backlinehq/backline/internal/booking"
	"github.com/backlinehq/backline/internal/intake"
	"github.com/backlinehq/backline/internal/links"
	"github.com/backlinehq/backline/internal/propagate"
	"github.com/backlinehq/backline/internal/reconcile"
	"github.com/backlinehq/backline/internal/store"
)

// Handler bundles the services the HTTP handlers delegate to.
type Handler struct {
	store     *store.Store
	links     *links.Service
	intake    *intake.Gateway
	reconcile *reconcile.Engine
	propagate *propagate.Coordinator
	bookings  *booking.Service
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	st *store.Store,
	ls *links.Service,
	gw *intake.Gateway,
	eng *reconcile.Engine,
	coord *propagate.Coordinator,
	bs *booking.Service,
) *Handler {
	return &Handler{
		store:     st,
		links:     ls,
		intake:    gw,
		reconcile: eng,
		propagate: coord,
		bookings:  bs,
	}
}
