// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
)

// Key prefixes for link records and their indexes.
const (
	linkKeyPrefix        = "link:"
	linkTokenKeyPrefix   = "link_token:"
	linkBookingKeyPrefix = "link_booking:"
)

func linkKey(id string) []byte         { return []byte(linkKeyPrefix + id) }
func linkTokenKey(token string) []byte { return []byte(linkTokenKeyPrefix + token) }
func linkBookingKey(bid string) []byte { return []byte(linkBookingKeyPrefix + bid) }

// CreateLink persists a new link with its token and booking indexes.
// The booking index enforces at most one link per booking: a concurrent
// create for the same booking loses with ErrAlreadyExists.
func (s *Store) CreateLink(ctx context.Context, link *models.Link) error {
	defer metrics.ObserveStoreOp("create_link", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		exists, err := indexExists(txn, linkBookingKey(link.BookingID))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: link for booking %s", ErrAlreadyExists, link.BookingID)
		}
		if err := setRecord(txn, linkKey(link.ID), link); err != nil {
			return err
		}
		if err := txn.Set(linkTokenKey(link.Token), []byte(link.ID)); err != nil {
			return err
		}
		return txn.Set(linkBookingKey(link.BookingID), []byte(link.ID))
	})
}

// GetLink fetches a link by id.
func (s *Store) GetLink(ctx context.Context, id string) (*models.Link, error) {
	defer metrics.ObserveStoreOp("get_link", time.Now())

	var link models.Link
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, linkKey(id), &link)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLinkByToken fetches a link by its opaque public token.
func (s *Store) GetLinkByToken(ctx context.Context, token string) (*models.Link, error) {
	defer metrics.ObserveStoreOp("get_link_by_token", time.Now())

	var link models.Link
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getIndex(txn, linkTokenKey(token))
		if err != nil {
			return err
		}
		return getRecord(txn, linkKey(id), &link)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLinkByBooking fetches the link issued for a booking, if any.
func (s *Store) GetLinkByBooking(ctx context.Context, bookingID string) (*models.Link, error) {
	defer metrics.ObserveStoreOp("get_link_by_booking", time.Now())

	var link models.Link
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getIndex(txn, linkBookingKey(bookingID))
		if err != nil {
			return err
		}
		return getRecord(txn, linkKey(id), &link)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink applies mutate to the link under a conditional write. The
// callback sees the current record and may reject the update by returning
// an error, which is surfaced verbatim. This is the primitive behind the
// exactly-once link transition.
func (s *Store) UpdateLink(ctx context.Context, id string, mutate func(*models.Link) error) (*models.Link, error) {
	defer metrics.ObserveStoreOp("update_link", time.Now())

	var link models.Link
	err := s.update(ctx, func(txn *badger.Txn) error {
		link = models.Link{}
		if err := getRecord(txn, linkKey(id), &link); err != nil {
			return err
		}
		if err := mutate(&link); err != nil {
			return err
		}
		return setRecord(txn, linkKey(id), &link)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// DeleteLink removes a link and its indexes. Used when a booking is deleted
// before its form ever came back.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp("delete_link", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		var link models.Link
		if err := getRecord(txn, linkKey(id), &link); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		if err := txn.Delete(linkTokenKey(link.Token)); err != nil {
			return err
		}
		if err := txn.Delete(linkBookingKey(link.BookingID)); err != nil {
			return err
		}
		return txn.Delete(linkKey(id))
	})
}
