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
	contactKeyPrefix      = "contact:"
	contactTokenKeyPrefix = "contact_token:"
)

func contactKey(id string) []byte { return []byte(contactKeyPrefix + id) }

// contactTokenKey maps a correlation token to its canonical contact id.
// Written only once a token is attached, so at most one contact per token.
func contactTokenKey(token string) []byte { return []byte(contactTokenKeyPrefix + token) }

// CreateContact persists an operator-created contact. The correlation token
// index is written only when the contact already carries a token.
func (s *Store) CreateContact(ctx context.Context, contact *models.Contact) error {
	defer metrics.ObserveStoreOp("create_contact", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setRecord(txn, contactKey(contact.ID), contact); err != nil {
			return err
		}
		if contact.CorrelationToken != "" {
			return txn.Set(contactTokenKey(contact.CorrelationToken), []byte(contact.ID))
		}
		return nil
	})
}

// UpsertContact writes a contact unconditionally, maintaining the token
// index. Later upserts for the same token converge on the same record, which
// is what makes the canonical-contact commit step idempotent.
func (s *Store) UpsertContact(ctx context.Context, contact *models.Contact) error {
	defer metrics.ObserveStoreOp("upsert_contact", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setRecord(txn, contactKey(contact.ID), contact); err != nil {
			return err
		}
		if contact.CorrelationToken != "" {
			return txn.Set(contactTokenKey(contact.CorrelationToken), []byte(contact.ID))
		}
		return nil
	})
}

// GetContact fetches a contact by id.
func (s *Store) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	defer metrics.ObserveStoreOp("get_contact", time.Now())

	var contact models.Contact
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, contactKey(id), &contact)
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetContactByToken fetches the canonical contact for a correlation token.
// ErrNotFound means no submission under that token has been validated yet.
func (s *Store) GetContactByToken(ctx context.Context, token string) (*models.Contact, error) {
	defer metrics.ObserveStoreOp("get_contact_by_token", time.Now())

	var contact models.Contact
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getIndex(txn, contactTokenKey(token))
		if err != nil {
			return err
		}
		return getRecord(txn, contactKey(id), &contact)
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListContacts returns all contacts sorted by identity.
func (s *Store) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	defer metrics.ObserveStoreOp("list_contacts", time.Now())

	var contacts []*models.Contact
	err := s.view(ctx, func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(contactKeyPrefix), func(val []byte) error {
			var contact models.Contact
			if err := json.Unmarshal(val, &contact); err != nil {
				return err
			}
			contacts = append(contacts, &contact)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].Identity() < contacts[j].Identity()
	})
	return contacts, nil
}
