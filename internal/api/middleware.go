// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Per-group rate limits. Zero-valued fields fall back to the package
	// defaults.
	RateLimitAPI    RateLimitConfig
	RateLimitPublic RateLimitConfig
	RateLimitHealth RateLimitConfig

	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty and must be configured explicitly.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitAPI:         DefaultRateLimitAPI,
		RateLimitPublic:      DefaultRateLimitPublic,
		RateLimitHealth:      DefaultRateLimitHealth,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	if config.RateLimitAPI.Requests == 0 {
		config.RateLimitAPI = DefaultRateLimitAPI
	}
	if config.RateLimitPublic.Requests == 0 {
		config.RateLimitPublic = DefaultRateLimitPublic
	}
	if config.RateLimitHealth.Requests == 0 {
		config.RateLimitHealth = DefaultRateLimitHealth
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{config: config, cors: corsHandler}
}

// CORS returns the go-chi/cors middleware built from the config.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig defines rate limit parameters for a route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-group rate limit defaults. The public intake group is strict because
// it is the only unauthenticated write surface.
var (
	// DefaultRateLimitAPI is the default operator API limit.
	DefaultRateLimitAPI = RateLimitConfig{Requests: 100, Window: time.Minute}

	// DefaultRateLimitPublic bounds anonymous form traffic per IP.
	DefaultRateLimitPublic = RateLimitConfig{Requests: 10, Window: time.Minute}

	// DefaultRateLimitHealth allows frequent monitoring probes without abuse.
	DefaultRateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimitAPI returns the limiter for the operator route group.
func (m *ChiMiddleware) RateLimitAPI() func(http.Handler) http.Handler {
	return m.RateLimitCustom(m.config.RateLimitAPI)
}

// RateLimitPublic returns the limiter for the anonymous intake group.
func (m *ChiMiddleware) RateLimitPublic() func(http.Handler) http.Handler {
	return m.RateLimitCustom(m.config.RateLimitPublic)
}

// RateLimitHealth returns the limiter for the health probe group.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(m.config.RateLimitHealth)
}

// RateLimitCustom returns an IP-keyed rate limiter for the given config,
// or a no-op when rate limiting is disabled.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	window := config.Window
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(config.Requests, window)
}

// APISecurityHeaders adds the standard security headers to API responses.
// HSTS is added only when the request arrived over TLS or a TLS-terminating
// proxy.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
