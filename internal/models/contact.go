// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import "time"

// Contact is a venue contact (programmer) record. Operators create contacts
// with little more than an identity; the remaining business fields arrive
// through the intake workflow.
//
// CorrelationToken is empty until the first submission for this contact is
// validated. From then on the contact is the canonical record for that token
// and there is never more than one contact per token.
type Contact struct {
	ID               string               `json:"id"`
	CorrelationToken string               `json:"correlation_token,omitempty"`
	Fields           map[FieldName]string `json:"fields"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Identity returns the contact's display name.
func (c *Contact) Identity() string {
	return c.Fields[FieldIdentity]
}
