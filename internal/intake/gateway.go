// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package intake is the public-facing gateway that accepts anonymous form
// submissions against one-time links.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backlinehq/backline/internal/links"
	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/store"
)

// ErrUnknownField indicates the submission carried a field name outside the
// recognized set.
var ErrUnknownField = errors.New("unknown submission field")

// Gateway accepts public form submissions.
type Gateway struct {
	store *store.Store
	links *links.Service
}

// NewGateway creates an intake gateway.
func NewGateway(st *store.Store, ls *links.Service) *Gateway {
	return &Gateway{store: st, links: ls}
}

// Describe resolves a token for form rendering. It exposes only the booking
// summary and the recognized field names, never canonical contact data.
func (g *Gateway) Describe(ctx context.Context, token string) (*models.Link, error) {
	return g.links.Resolve(ctx, token)
}

// Submit accepts one anonymous submission for the link behind token.
//
// The submission is staged first, then the link is conditionally moved
// Issued -> Submitted recording the submission id. That single conditional
// write is the exactly-once guarantee: of two concurrent submits, exactly
// one transition commits and the loser observes ErrAlreadyUsed, after which
// its staged submission is deleted again. No canonical data is touched here.
func (g *Gateway) Submit(ctx context.Context, token string, fields map[models.FieldName]string) (*models.Submission, error) {
	for f := range fields {
		if !models.IsKnownField(f) {
			metrics.RecordSubmission("unknown_field")
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	link, err := g.links.Resolve(ctx, token)
	if err != nil {
		metrics.RecordSubmission("rejected")
		return nil, err
	}

	corrToken, err := g.correlationToken(ctx, link)
	if err != nil {
		metrics.RecordSubmission("error")
		return nil, err
	}

	sub := &models.Submission{
		ID:               uuid.NewString(),
		LinkID:           link.ID,
		BookingID:        link.BookingID,
		CorrelationToken: corrToken,
		Fields:           models.CopyFields(fields),
		Status:           models.SubmissionPending,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := g.store.CreateSubmission(ctx, sub); err != nil {
		metrics.RecordSubmission("error")
		return nil, fmt.Errorf("stage submission: %w", err)
	}

	_, err = g.store.UpdateLink(ctx, link.ID, func(l *models.Link) error {
		if l.Status != models.LinkStatusIssued {
			return links.ErrAlreadyUsed
		}
		l.Status = models.LinkStatusSubmitted
		l.SubmissionID = sub.ID
		return nil
	})
	if err != nil {
		// Lost the race or the store gave out: the staged submission must
		// not survive, or a duplicate would reach the review queue.
		if delErr := g.store.DeleteSubmission(ctx, sub.ID); delErr != nil {
			logging.Ctx(ctx).Error().Err(delErr).
				Str("submission_id", sub.ID).
				Msg("Failed to delete staged submission after lost link race")
		}
		metrics.RecordSubmission("rejected")
		return nil, err
	}

	metrics.RecordSubmission("accepted")
	logging.Ctx(ctx).Info().
		Str("submission_id", sub.ID).
		Str("link_id", link.ID).
		Str("booking_id", link.BookingID).
		Msg("Submission accepted")
	return sub, nil
}

// correlationToken reuses the contact's token when the submitter is already
// known, otherwise mints a fresh one. The token groups everything belonging
// to one real-world submitter without embedding any identity in it.
func (g *Gateway) correlationToken(ctx context.Context, link *models.Link) (string, error) {
	contact, err := g.store.GetContact(ctx, link.ContactID)
	if err == nil && contact.CorrelationToken != "" {
		return contact.CorrelationToken, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("resolve correlation token: %w", err)
	}
	return links.NewToken()
}
