// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package booking manages the operator-facing booking directory: bookings,
// artists, contacts and the per-booking contract workflow.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/store"
)

// Service implements booking management.
type Service struct {
	store *store.Store
}

// NewService creates a booking service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// CreateBookingParams are the operator-supplied fields of a new booking.
type CreateBookingParams struct {
	ArtistID  string
	ContactID string
	Venue     string
	Date      time.Time
	Notes     string
}

// CreateBooking persists a booking and its contract. Artist and contact
// references must resolve. If the contact already carries a correlation
// token the booking inherits it at creation, so validated contact data is
// reachable from day one.
func (s *Service) CreateBooking(ctx context.Context, p CreateBookingParams) (*models.Booking, error) {
	if _, err := s.store.GetArtist(ctx, p.ArtistID); err != nil {
		return nil, fmt.Errorf("create booking: artist %s: %w", p.ArtistID, err)
	}
	contact, err := s.store.GetContact(ctx, p.ContactID)
	if err != nil {
		return nil, fmt.Errorf("create booking: contact %s: %w", p.ContactID, err)
	}

	now := time.Now().UTC()
	b := &models.Booking{
		ID:               uuid.NewString(),
		ArtistID:         p.ArtistID,
		ContactID:        p.ContactID,
		CorrelationToken: contact.CorrelationToken,
		Venue:            p.Venue,
		Date:             p.Date,
		Notes:            p.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	contract := models.NewContract(uuid.NewString(), b.ID, now)
	if err := s.store.PutContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("create booking: contract: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("booking_id", b.ID).
		Str("artist_id", p.ArtistID).
		Str("contact_id", p.ContactID).
		Msg("Booking created")
	return b, nil
}

// GetBooking fetches a booking.
func (s *Service) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// ListBookings lists all bookings.
func (s *Service) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.store.ListBookings(ctx)
}

// DeleteBooking removes a booking, cascading to its contract and, when the
// form never came back, its unused intake link. Submissions survive the
// delete; they are audit records.
func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	if link, err := s.store.GetLinkByBooking(ctx, id); err == nil {
		if link.Status == models.LinkStatusIssued {
			if err := s.store.DeleteLink(ctx, link.ID); err != nil {
				return fmt.Errorf("delete booking: link: %w", err)
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete booking: %w", err)
	}

	if err := s.store.DeleteContractByBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: contract: %w", err)
	}
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	logging.Ctx(ctx).Info().Str("booking_id", id).Msg("Booking deleted")
	return nil
}

// CreateArtist persists a new artist.
func (s *Service) CreateArtist(ctx context.Context, name, genre string) (*models.Artist, error) {
	a := &models.Artist{
		ID:        uuid.NewString(),
		Name:      name,
		Genre:     genre,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateArtist(ctx, a); err != nil {
		return nil, fmt.Errorf("create artist: %w", err)
	}
	return a, nil
}

// GetArtist fetches an artist.
func (s *Service) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	return s.store.GetArtist(ctx, id)
}

// ListArtists lists all artists.
func (s *Service) ListArtists(ctx context.Context) ([]*models.Artist, error) {
	return s.store.ListArtists(ctx)
}

// CreateContact persists a new venue contact. Only the identity comes from
// the operator; every other field arrives via the intake workflow, and the
// correlation token is attached on the first reconciliation commit.
func (s *Service) CreateContact(ctx context.Context, identity string) (*models.Contact, error) {
	now := time.Now().UTC()
	c := &models.Contact{
		ID:        uuid.NewString(),
		Fields:    map[models.FieldName]string{models.FieldIdentity: identity},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

// GetContact fetches a contact.
func (s *Service) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	return s.store.GetContact(ctx, id)
}

// ListContacts lists all contacts.
func (s *Service) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	return s.store.ListContacts(ctx)
}

// GetContract fetches the contract for a booking.
func (s *Service) GetContract(ctx context.Context, bookingID string) (*models.Contract, error) {
	return s.store.GetContractByBooking(ctx, bookingID)
}

// CycleContractFlag advances one contract flag a single step through
// pending -> validated -> cancelled -> pending. Flags are independent;
// nothing orders them.
func (s *Service) CycleContractFlag(ctx context.Context, bookingID string, flag models.ContractFlag) (*models.Contract, error) {
	if !models.IsKnownContractFlag(flag) {
		return nil, fmt.Errorf("cycle flag: unknown contract flag %q", flag)
	}
	contract, err := s.store.UpdateContract(ctx, bookingID, func(c *models.Contract) error {
		return c.Cycle(flag, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("booking_id", bookingID).
		Str("flag", string(flag)).
		Str("state", string(contract.Flags[flag])).
		Msg("Contract flag cycled")
	return contract, nil
}
