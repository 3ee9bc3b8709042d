// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package store

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
)

const (
	bookingKeyPrefix        = "booking:"
	bookingCorrKeyPrefix    = "booking_corr:"
	bookingContactKeyPrefix = "booking_contact:"
)

func bookingKey(id string) []byte { return []byte(bookingKeyPrefix + id) }

// bookingCorrKey indexes bookings by correlation token.
func bookingCorrKey(token, id string) []byte {
	return []byte(bookingCorrKeyPrefix + token + ":" + id)
}

// bookingContactKey indexes bookings by their contact reference.
func bookingContactKey(contactID, id string) []byte {
	return []byte(bookingContactKeyPrefix + contactID + ":" + id)
}

// CreateBooking persists a new booking and its indexes.
func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	defer metrics.ObserveStoreOp("create_booking", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setRecord(txn, bookingKey(b.ID), b); err != nil {
			return err
		}
		if err := txn.Set(bookingContactKey(b.ContactID, b.ID), []byte(b.ID)); err != nil {
			return err
		}
		if b.CorrelationToken != "" {
			return txn.Set(bookingCorrKey(b.CorrelationToken, b.ID), []byte(b.ID))
		}
		return nil
	})
}

// GetBooking fetches a booking by id.
func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	defer metrics.ObserveStoreOp("get_booking", time.Now())

	var b models.Booking
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, bookingKey(id), &b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBooking applies mutate to the booking under a conditional write and
// keeps the correlation index in step when a token is attached.
func (s *Store) UpdateBooking(ctx context.Context, id string, mutate func(*models.Booking) error) (*models.Booking, error) {
	defer metrics.ObserveStoreOp("update_booking", time.Now())

	var b models.Booking
	err := s.update(ctx, func(txn *badger.Txn) error {
		b = models.Booking{}
		if err := getRecord(txn, bookingKey(id), &b); err != nil {
			return err
		}
		before := b.CorrelationToken
		if err := mutate(&b); err != nil {
			return err
		}
		if err := setRecord(txn, bookingKey(id), &b); err != nil {
			return err
		}
		if b.CorrelationToken != before {
			if before != "" {
				if err := txn.Delete(bookingCorrKey(before, id)); err != nil {
					return err
				}
			}
			if b.CorrelationToken != "" {
				return txn.Set(bookingCorrKey(b.CorrelationToken, id), []byte(id))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBooking removes a booking and its indexes.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp("delete_booking", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		var b models.Booking
		if err := getRecord(txn, bookingKey(id), &b); err != nil {
			return err
		}
		if err := txn.Delete(bookingContactKey(b.ContactID, id)); err != nil {
			return err
		}
		if b.CorrelationToken != "" {
			if err := txn.Delete(bookingCorrKey(b.CorrelationToken, id)); err != nil {
				return err
			}
		}
		return txn.Delete(bookingKey(id))
	})
}

// ListBookings returns all bookings sorted by date ascending.
func (s *Store) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	defer metrics.ObserveStoreOp("list_bookings", time.Now())

	var bookings []*models.Booking
	err := s.view(ctx, func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(bookingKeyPrefix), func(val []byte) error {
			var b models.Booking
			if err := json.Unmarshal(val, &b); err != nil {
				return err
			}
			bookings = append(bookings, &b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].Date.Before(bookings[j].Date)
	})
	return bookings, nil
}

// ListBookingsByToken returns every booking already carrying the
// correlation token.
func (s *Store) ListBookingsByToken(ctx context.Context, token string) ([]*models.Booking, error) {
	defer metrics.ObserveStoreOp("list_bookings_by_token", time.Now())
	return s.listBookingsByIndex(ctx, bookingCorrKeyPrefix+token+":")
}

// ListBookingsByContact returns every booking referencing the contact.
func (s *Store) ListBookingsByContact(ctx context.Context, contactID string) ([]*models.Booking, error) {
	defer metrics.ObserveStoreOp("list_bookings_by_contact", time.Now())
	return s.listBookingsByIndex(ctx, bookingContactKeyPrefix+contactID+":")
}

func (s *Store) listBookingsByIndex(ctx context.Context, prefix string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := s.view(ctx, func(txn *badger.Txn) error {
		var ids []string
		err := forEachPrefix(txn, []byte(prefix), func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var b models.Booking
			if err := getRecord(txn, bookingKey(id), &b); err != nil {
				return err
			}
			bookings = append(bookings, &b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].Date.Before(bookings[j].Date)
	})
	return bookings, nil
}
