// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import "time"

// APIResponse is the standard envelope for every JSON response.
type APIResponse struct {
	Status   string       `json:"status"` // "success" or "error"
	Data     interface{}  `json:"data,omitempty"`
	Metadata *APIMetadata `json:"metadata,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
}

// APIMetadata carries response timing information.
type APIMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// APIError is a machine-readable error payload.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes returned by the HTTP surface.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeAlreadyUsed      = "ALREADY_USED"
	ErrCodeLinkExpired      = "LINK_EXPIRED"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnknownField     = "UNKNOWN_FIELD"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)
