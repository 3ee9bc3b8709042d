// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import "time"

// Booking is one concert date for an artist at a venue, owned by an
// operator. It references its artist and venue contact by id only.
//
// CorrelationToken links the booking to validated contact data. It is empty
// until a reconciliation commit attaches it, either because the booking's
// contact gained a canonical record or because the booking was created
// against a contact that already had one.
type Booking struct {
	ID               string    `json:"id"`
	ArtistID         string    `json:"artist_id"`
	ContactID        string    `json:"contact_id"`
	CorrelationToken string    `json:"correlation_token,omitempty"`
	Venue            string    `json:"venue"`
	Date             time.Time `json:"date"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Summary returns the short human-readable description shown on the public
// intake form so the submitter can recognize which engagement the form is for.
func (b *Booking) Summary(artistName string) string {
	date := b.Date.Format("2006-01-02")
	if artistName == "" {
		return b.Venue + ", " + date
	}
	return artistName + " at " + b.Venue + ", " + date
}

// Artist is a performer or act that bookings reference.
type Artist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
