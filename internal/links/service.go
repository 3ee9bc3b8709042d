// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package links issues and resolves the one-time intake links that operators
// share with venue contacts.
package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/store"
)

var (
	// ErrInvalidToken indicates the token matches no known link.
	ErrInvalidToken = errors.New("link token not recognized")

	// ErrAlreadyUsed indicates the link has already accepted a submission.
	ErrAlreadyUsed = errors.New("link already used")

	// ErrExpired indicates the link outlived the configured TTL.
	ErrExpired = errors.New("link expired")
)

// Service issues and resolves intake links.
type Service struct {
	store *store.Store
	ttl   time.Duration
}

// NewService creates a link service. A non-positive ttl disables expiry.
func NewService(st *store.Store, ttl time.Duration) *Service {
	return &Service{store: st, ttl: ttl}
}

// Issue creates the one-time link for a booking, or returns the existing one
// unchanged: issuing is idempotent per booking, so an operator clicking
// twice shares a single token. Fails with store.ErrNotFound when the booking
// or its contact does not resolve.
func (s *Service) Issue(ctx context.Context, bookingID string) (*models.Link, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("issue link: booking %s: %w", bookingID, err)
	}
	contact, err := s.store.GetContact(ctx, booking.ContactID)
	if err != nil {
		return nil, fmt.Errorf("issue link: contact %s: %w", booking.ContactID, err)
	}

	if existing, err := s.store.GetLinkByBooking(ctx, bookingID); err == nil {
		if !existing.IsExpired(s.ttl, time.Now()) {
			metrics.RecordLinkIssued("existing")
			return existing, nil
		}
		// Expired link: retire it so a fresh one can be issued.
		if err := s.store.DeleteLink(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("issue link: retire expired link: %w", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("issue link: %w", err)
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	var artistName string
	if artist, err := s.store.GetArtist(ctx, booking.ArtistID); err == nil {
		artistName = artist.Name
	}

	link := &models.Link{
		ID:             uuid.NewString(),
		BookingID:      bookingID,
		ContactID:      booking.ContactID,
		Token:          token,
		BookingSummary: booking.Summary(artistName),
		Status:         models.LinkStatusIssued,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateLink(ctx, link); err != nil {
		// Lost a concurrent issue race: the other caller's link wins.
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.RecordLinkIssued("existing")
			return s.store.GetLinkByBooking(ctx, bookingID)
		}
		return nil, fmt.Errorf("issue link: %w", err)
	}

	metrics.RecordLinkIssued("new")
	logging.Ctx(ctx).Info().
		Str("link_id", link.ID).
		Str("booking_id", bookingID).
		Str("contact_id", contact.ID).
		Msg("Link issued")
	return link, nil
}

// Resolve looks a link up by its public token and checks it is usable.
// Unknown tokens are indistinguishable from never-issued ones.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Link, error) {
	link, err := s.store.GetLinkByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve link: %w", err)
	}
	if link.IsExpired(s.ttl, time.Now()) {
		return nil, ErrExpired
	}
	if link.Status != models.LinkStatusIssued {
		return nil, ErrAlreadyUsed
	}
	return link, nil
}
