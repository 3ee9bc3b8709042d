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
	submissionKeyPrefix     = "submission:"
	submissionCorrKeyPrefix = "submission_corr:"
)

func submissionKey(id string) []byte { return []byte(submissionKeyPrefix + id) }

// submissionCorrKey indexes submissions by correlation token for fan-out.
func submissionCorrKey(token, id string) []byte {
	return []byte(submissionCorrKeyPrefix + token + ":" + id)
}

// CreateSubmission persists a new submission and its correlation index.
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	defer metrics.ObserveStoreOp("create_submission", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setRecord(txn, submissionKey(sub.ID), sub); err != nil {
			return err
		}
		return txn.Set(submissionCorrKey(sub.CorrelationToken, sub.ID), []byte(sub.ID))
	})
}

// GetSubmission fetches a submission by id.
func (s *Store) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	defer metrics.ObserveStoreOp("get_submission", time.Now())

	var sub models.Submission
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getRecord(txn, submissionKey(id), &sub)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubmission applies mutate to the submission under a conditional
// write. Status transition checks live in the callback.
func (s *Store) UpdateSubmission(ctx context.Context, id string, mutate func(*models.Submission) error) (*models.Submission, error) {
	defer metrics.ObserveStoreOp("update_submission", time.Now())

	var sub models.Submission
	err := s.update(ctx, func(txn *badger.Txn) error {
		sub = models.Submission{}
		if err := getRecord(txn, submissionKey(id), &sub); err != nil {
			return err
		}
		if err := mutate(&sub); err != nil {
			return err
		}
		return setRecord(txn, submissionKey(id), &sub)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubmission removes a staged submission and its index. Only the
// intake gateway calls this, to compensate a lost link race; committed
// submissions are never deleted.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp("delete_submission", time.Now())

	return s.update(ctx, func(txn *badger.Txn) error {
		var sub models.Submission
		if err := getRecord(txn, submissionKey(id), &sub); err != nil {
			return err
		}
		if err := txn.Delete(submissionCorrKey(sub.CorrelationToken, sub.ID)); err != nil {
			return err
		}
		return txn.Delete(submissionKey(id))
	})
}

// ListSubmissions returns all submissions, newest first.
func (s *Store) ListSubmissions(ctx context.Context) ([]*models.Submission, error) {
	defer metrics.ObserveStoreOp("list_submissions", time.Now())

	var subs []*models.Submission
	err := s.view(ctx, func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(submissionKeyPrefix), func(val []byte) error {
			var sub models.Submission
			if err := json.Unmarshal(val, &sub); err != nil {
				return err
			}
			subs = append(subs, &sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
	return subs, nil
}

// ListSubmissionsByToken returns every submission sharing a correlation
// token, oldest first.
func (s *Store) ListSubmissionsByToken(ctx context.Context, token string) ([]*models.Submission, error) {
	defer metrics.ObserveStoreOp("list_submissions_by_token", time.Now())

	var subs []*models.Submission
	err := s.view(ctx, func(txn *badger.Txn) error {
		var ids []string
		err := forEachPrefix(txn, []byte(submissionCorrKeyPrefix+token+":"), func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var sub models.Submission
			if err := getRecord(txn, submissionKey(id), &sub); err != nil {
				return err
			}
			subs = append(subs, &sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
	return subs, nil
}
