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

const artistKeyPrefix = "artist:"

func artistKey(id string) []byte { return []byte(artistKeyPrefix + id) }

// CreateArtist persists a new artist.
func (s *Store) CreateArtist(ctx context.Context, a *models.Artist) error {
	defer metrics.ObserveStoreOp("create_artist", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		return setRecord(txn, artistKey(a.ID), a)
	})
}

// GetArtist fetches an artist by id.
func (s *Store) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	defer metrics.ObserveStoreOp("get_artist", time.Now())

	var a models.Artist
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, artistKey(id), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtists returns all artists sorted by name.
func (s *Store) ListArtists(ctx context.Context) ([]*models.Artist, error) {
	defer metrics.ObserveStoreOp("list_artists", time.Now())

	var artists []*models.Artist
	err := s.view(ctx, func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(artistKeyPrefix), func(val []byte) error {
			var a models.Artist
			if err := json.Unmarshal(val, &a); err != nil {
				return err
			}
			artists = append(artists, &a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(artists, func(i, j int) bool {
		return artists[i].Name < artists[j].Name
	})
	return artists, nil
}
