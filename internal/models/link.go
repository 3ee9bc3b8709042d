// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import "time"

// LinkStatus is the lifecycle state of a one-time intake link.
// The only legal transition is Issued -> Submitted.
type LinkStatus string

const (
	LinkStatusIssued    LinkStatus = "issued"
	LinkStatusSubmitted LinkStatus = "submitted"
)

// Link is a shareable one-time token bound to a single booking and its
// venue contact. The token is the only credential the anonymous submitter
// holds; the link record never leaves the operator surface.
type Link struct {
	ID             string     `json:"id"`
	BookingID      string     `json:"booking_id"`
	ContactID      string     `json:"contact_id"`
	Token          string     `json:"token"`
	BookingSummary string     `json:"booking_summary"`
	Status         LinkStatus `json:"status"`
	SubmissionID   string     `json:"submission_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsExpired reports whether the link has outlived ttl. A non-positive ttl
// means links never expire.
func (l *Link) IsExpired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(l.CreatedAt.Add(ttl))
}
