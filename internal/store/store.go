// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package store is the persistence layer, a BadgerDB-backed document store.
//
// Every record is JSON under a typed key prefix; secondary indexes are plain
// keys whose value is the primary id. There are no transactions spanning
// entities: each write commits on its own, and multi-entity workflows are
// built from idempotent single-record steps upstream.
//
// Conditional writes are read-modify-write inside one Badger Update
// transaction. The mutation callback checks its precondition against the
// freshly read record and its error is surfaced verbatim; a transaction
// conflict is retried a bounded number of times before surfacing
// ErrUnavailable.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/metrics"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a uniqueness constraint was hit on create.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict indicates a transaction conflict. It is retried internally
	// and only wrapped into ErrUnavailable once retries are exhausted.
	ErrConflict = errors.New("transaction conflict")

	// ErrUnavailable indicates the store could not complete the operation.
	// Callers on the commit path must fail loudly on this, never paper over it.
	ErrUnavailable = errors.New("store unavailable")
)

// conflictRetries bounds internal retries of conflicting transactions.
const conflictRetries = 3

// Store is the BadgerDB-backed document store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the Badger directory at path.
// The directory must be provisioned at deployment time; Open is the only
// place the store is bootstrapped.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("Store opened")
	return &Store{db: db}, nil
}

// OpenInMemory opens an ephemeral in-memory store. Used by tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database accepts transactions. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func(txn *badger.Txn) error {
		return nil
	})
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// update runs fn in an Update transaction, retrying bounded times on
// transaction conflict. Errors returned by fn itself pass through untouched,
// so precondition failures keep their identity.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.RecordStoreConflict()
		logging.Ctx(ctx).Debug().Int("attempt", attempt+1).Msg("Store transaction conflict, retrying")
	}
	metrics.RecordStoreRetriesExhausted()
	return fmt.Errorf("%w: %w: retries exhausted after %d attempts", ErrUnavailable, ErrConflict, conflictRetries)
}

// getRecord reads and unmarshals the record at key within txn.
func getRecord(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, out); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	})
}

// setRecord marshals v and writes it at key within txn.
func setRecord(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// getIndex reads a secondary index value (a primary id) at key within txn.
func getIndex(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read index %s: %w", key, err)
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// indexExists reports whether a secondary index key is present within txn.
func indexExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe index %s: %w", key, err)
	}
	return true, nil
}

// forEachPrefix iterates all values under prefix within txn.
func forEachPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
