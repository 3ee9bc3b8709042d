// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Command server runs the Backline HTTP service: the operator booking API
// and the public intake form endpoints over a single embedded store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/backlinehq/backline/internal/api"
	"github.com/backlinehq/backline/internal/booking"
	"github.com/backlinehq/backline/internal/config"
	"github.com/backlinehq/backline/internal/intake"
	"github.com/backlinehq/backline/internal/links"
	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/propagate"
	"github.com/backlinehq/backline/internal/reconcile"
	"github.com/backlinehq/backline/internal/store"
	"github.com/backlinehq/backline/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Dur("link_ttl", cfg.Intake.LinkTTL).
		Msg("Configuration loaded")

	st, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	linkService := links.NewService(st, cfg.Intake.LinkTTL)
	gateway := intake.NewGateway(st, linkService)
	engine := reconcile.NewEngine(st)
	coordinator := propagate.NewCoordinator(st)
	bookingService := booking.NewService(st)

	handler := api.NewHandler(st, linkService, gateway, engine, coordinator, bookingService)
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitAPI: api.RateLimitConfig{
			Requests: cfg.Security.RateLimitReqs,
			Window:   cfg.Security.RateLimitWindow,
		},
		RateLimitPublic: api.RateLimitConfig{
			Requests: cfg.Intake.RateLimitRequests,
			Window:   cfg.Intake.RateLimitWindow,
		},
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Server starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("Server stopped")
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Store.InMemory {
		return store.OpenInMemory()
	}
	return store.Open(cfg.Store.Path)
}
