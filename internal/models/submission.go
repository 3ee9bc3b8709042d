// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import "time"

// SubmissionStatus is the review state of an intake submission.
//
// Transitions: Pending -> Validated -> Processed, or Pending -> Rejected.
// Processed and Rejected are terminal. Submissions are never deleted once
// a link transition has committed; terminal records remain for audit.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionValidated SubmissionStatus = "validated"
	SubmissionProcessed SubmissionStatus = "processed"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// CanTransition reports whether moving from s to the target status is legal.
func (s SubmissionStatus) CanTransition(to SubmissionStatus) bool {
	switch s {
	case SubmissionPending:
		return to == SubmissionValidated || to == SubmissionRejected
	case SubmissionValidated:
		return to == SubmissionProcessed
	default:
		return false
	}
}

// Terminal reports whether s admits no further transitions.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionProcessed || s == SubmissionRejected
}

// Submission is one anonymous form submission staged for reconciliation.
// Fields holds exactly the values the submitter entered until the record
// is processed, at which point the operator-merged values replace them.
type Submission struct {
	ID               string               `json:"id"`
	LinkID           string               `json:"link_id"`
	BookingID        string               `json:"booking_id"`
	CorrelationToken string               `json:"correlation_token"`
	Fields           map[FieldName]string `json:"fields"`
	Status           SubmissionStatus     `json:"status"`
	RejectReason     string               `json:"reject_reason,omitempty"`
	SubmittedAt      time.Time            `json:"submitted_at"`
	ProcessedAt      *time.Time           `json:"processed_at,omitempty"`
}
