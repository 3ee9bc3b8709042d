// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
)

// Contracts are keyed by booking id: exactly one contract per booking.
const contractKeyPrefix = "contract:"

func contractKey(bookingID string) []byte { return []byte(contractKeyPrefix + bookingID) }

// PutContract writes a contract, creating or replacing it.
func (s *Store) PutContract(ctx context.Context, c *models.Contract) error {
	defer metrics.ObserveStoreOp("put_contract", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		return setRecord(txn, contractKey(c.BookingID), c)
	})
}

// GetContractByBooking fetches the contract attached to a booking.
func (s *Store) GetContractByBooking(ctx context.Context, bookingID string) (*models.Contract, error) {
	defer metrics.ObserveStoreOp("get_contract", time.Now())

	var c models.Contract
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, contractKey(bookingID), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateContract applies mutate to the booking's contract under a
// conditional write.
func (s *Store) UpdateContract(ctx context.Context, bookingID string, mutate func(*models.Contract) error) (*models.Contract, error) {
	defer metrics.ObserveStoreOp("update_contract", time.Now())

	var c models.Contract
	err := s.update(ctx, func(txn *badger.Txn) error {
		c = models.Contract{}
		if err := getRecord(txn, contractKey(bookingID), &c); err != nil {
			return err
		}
		if err := mutate(&c); err != nil {
			return err
		}
		return setRecord(txn, contractKey(bookingID), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteContractByBooking removes a booking's contract. Missing contracts
// are tolerated so the booking delete cascade stays idempotent.
func (s *Store) DeleteContractByBooking(ctx context.Context, bookingID string) error {
	defer metrics.ObserveStoreOp("delete_contract", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		var c models.Contract
		if err := getRecord(txn, contractKey(bookingID), &c); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		return txn.Delete(contractKey(bookingID))
	})
}
