// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package propagate commits a validated merged record to the canonical
// contact and fans the result out to related submissions and bookings.
//
// The store has no transactions spanning entities, so a commit is a fixed
// sequence of four independently idempotent steps. A failure stops the
// sequence and is reported loudly; re-invoking Commit with the same record
// converges, because completed steps are upserts or guarded transitions that
// tolerate being replayed.
package propagate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/metrics"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/reconcile"
	"github.com/backlinehq/backline/internal/store"
)

// ErrSubmissionRejected indicates a commit was attempted for a submission
// that an operator already rejected.
var ErrSubmissionRejected = errors.New("submission was rejected")

// Step names one commit step.
type Step string

const (
	StepUpsertContact     Step = "upsert_contact"
	StepMarkSubmission    Step = "mark_submission"
	StepFanOutSubmissions Step = "fan_out_submissions"
	StepFanOutBookings    Step = "fan_out_bookings"
)

// Steps returns the commit steps in execution order.
func Steps() []Step {
	return []Step{StepUpsertContact, StepMarkSubmission, StepFanOutSubmissions, StepFanOutBookings}
}

// StepResult reports the outcome of one commit step.
type StepResult struct {
	Step  Step   `json:"step"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// CommitResult reports the outcome of a commit attempt.
type CommitResult struct {
	Steps     []StepResult `json:"steps"`
	Completed bool         `json:"completed"`
	ContactID string       `json:"contact_id,omitempty"`
}

// Coordinator runs reconciliation commits.
type Coordinator struct {
	store *store.Store
}

// NewCoordinator creates a propagation coordinator.
func NewCoordinator(st *store.Store) *Coordinator {
	return &Coordinator{store: st}
}

// Commit applies a validated merged record. The four steps run in order:
//
//  1. Upsert the canonical contact for the correlation token.
//  2. Mark the originating submission Validated then Processed, recording
//     the merged fields and the processing time for audit.
//  3. Fan out Processed to every other non-terminal submission sharing the
//     correlation token.
//  4. Attach the correlation token to every booking that shares it through
//     its contact reference.
//
// On a step failure the remaining steps stay pending and the error is
// returned together with the partial result. Nothing is ever fabricated on
// store failure.
func (c *Coordinator) Commit(ctx context.Context, rec *reconcile.MergedRecord) (*CommitResult, error) {
	result := &CommitResult{}

	// A rejected submission refuses the commit before any step touches the
	// canonical record. The same check inside markSubmission covers the race
	// window between this read and the guarded transition; a replay after a
	// partial failure still passes because the status is then Validated or
	// Processed.
	sub, err := c.store.GetSubmission(ctx, rec.SubmissionID)
	if err != nil {
		c.recordStep(result, StepUpsertContact, err)
		return c.fail(ctx, result, StepUpsertContact, err)
	}
	if sub.Status == models.SubmissionRejected {
		c.recordStep(result, StepUpsertContact, ErrSubmissionRejected)
		return c.fail(ctx, result, StepUpsertContact, ErrSubmissionRejected)
	}

	contact, err := c.upsertContact(ctx, rec)
	if err != nil {
		c.recordStep(result, StepUpsertContact, err)
		return c.fail(ctx, result, StepUpsertContact, err)
	}
	c.recordStep(result, StepUpsertContact, nil)
	result.ContactID = contact.ID

	if err := c.markSubmission(ctx, rec); err != nil {
		c.recordStep(result, StepMarkSubmission, err)
		return c.fail(ctx, result, StepMarkSubmission, err)
	}
	c.recordStep(result, StepMarkSubmission, nil)

	if err := c.fanOutSubmissions(ctx, rec); err != nil {
		c.recordStep(result, StepFanOutSubmissions, err)
		return c.fail(ctx, result, StepFanOutSubmissions, err)
	}
	c.recordStep(result, StepFanOutSubmissions, nil)

	if err := c.fanOutBookings(ctx, rec, contact); err != nil {
		c.recordStep(result, StepFanOutBookings, err)
		return c.fail(ctx, result, StepFanOutBookings, err)
	}
	c.recordStep(result, StepFanOutBookings, nil)

	result.Completed = true
	metrics.RecordCommit("ok")
	logging.Ctx(ctx).Info().
		Str("submission_id", rec.SubmissionID).
		Str("contact_id", contact.ID).
		Msg("Reconciliation committed")
	return result, nil
}

func (c *Coordinator) recordStep(result *CommitResult, step Step, err error) {
	sr := StepResult{Step: step, Done: err == nil}
	if err != nil {
		sr.Error = err.Error()
	}
	result.Steps = append(result.Steps, sr)
	metrics.RecordCommitStep(string(step), err == nil)
}

// fail pads the result with the steps that never ran and returns the error.
func (c *Coordinator) fail(ctx context.Context, result *CommitResult, failed Step, err error) (*CommitResult, error) {
	seen := false
	for _, step := range Steps() {
		if step == failed {
			seen = true
			continue
		}
		if seen {
			result.Steps = append(result.Steps, StepResult{Step: step, Done: false})
		}
	}
	metrics.RecordCommit("error")
	logging.Ctx(ctx).Error().Err(err).
		Str("step", string(failed)).
		Msg("Reconciliation commit failed")
	return result, fmt.Errorf("commit step %s: %w", failed, err)
}

// upsertContact creates or refreshes the canonical contact for the token.
// When no contact carries the token yet, the submission's link identifies
// the operator-created contact the token should be attached to, so the
// canonical record and the directory entry stay one and the same.
func (c *Coordinator) upsertContact(ctx context.Context, rec *reconcile.MergedRecord) (*models.Contact, error) {
	now := time.Now().UTC()

	contact, err := c.store.GetContactByToken(ctx, rec.CorrelationToken)
	if err == nil {
		contact.Fields = models.CopyFields(rec.Fields)
		contact.UpdatedAt = now
		return contact, c.store.UpsertContact(ctx, contact)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	contact, err = c.contactForSubmission(ctx, rec.SubmissionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if contact == nil {
		contact = &models.Contact{ID: uuid.NewString(), CreatedAt: now}
	}
	contact.CorrelationToken = rec.CorrelationToken
	contact.Fields = models.CopyFields(rec.Fields)
	contact.UpdatedAt = now
	return contact, c.store.UpsertContact(ctx, contact)
}

// contactForSubmission walks submission -> link -> contact.
func (c *Coordinator) contactForSubmission(ctx context.Context, submissionID string) (*models.Contact, error) {
	sub, err := c.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	link, err := c.store.GetLink(ctx, sub.LinkID)
	if err != nil {
		return nil, err
	}
	return c.store.GetContact(ctx, link.ContactID)
}

// markSubmission moves the originating submission Pending -> Validated ->
// Processed as two guarded transitions. An already processed submission is
// left alone so replays converge; a rejected one refuses the commit
// outright.
func (c *Coordinator) markSubmission(ctx context.Context, rec *reconcile.MergedRecord) error {
	_, err := c.store.UpdateSubmission(ctx, rec.SubmissionID, func(s *models.Submission) error {
		switch s.Status {
		case models.SubmissionValidated, models.SubmissionProcessed:
			return nil
		case models.SubmissionRejected:
			return ErrSubmissionRejected
		}
		s.Status = models.SubmissionValidated
		return nil
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = c.store.UpdateSubmission(ctx, rec.SubmissionID, func(s *models.Submission) error {
		if s.Status == models.SubmissionProcessed {
			return nil
		}
		s.Status = models.SubmissionProcessed
		s.Fields = models.CopyFields(rec.Fields)
		s.ProcessedAt = &now
		return nil
	})
	return err
}

// fanOutSubmissions marks every other non-terminal submission under the
// token Processed with the same merged fields. A sibling that an operator
// rejected in the meantime keeps its rejection.
func (c *Coordinator) fanOutSubmissions(ctx context.Context, rec *reconcile.MergedRecord) error {
	subs, err := c.store.ListSubmissionsByToken(ctx, rec.CorrelationToken)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, sub := range subs {
		if sub.ID == rec.SubmissionID || sub.Status.Terminal() {
			continue
		}
		_, err := c.store.UpdateSubmission(ctx, sub.ID, func(s *models.Submission) error {
			if s.Status.Terminal() {
				return nil
			}
			s.Status = models.SubmissionProcessed
			s.Fields = models.CopyFields(rec.Fields)
			s.ProcessedAt = &now
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// fanOutBookings attaches the correlation token to every booking reachable
// through the canonical contact that does not carry it yet. Bookings already
// indexed under the token need no write.
func (c *Coordinator) fanOutBookings(ctx context.Context, rec *reconcile.MergedRecord, contact *models.Contact) error {
	bookings, err := c.store.ListBookingsByContact(ctx, contact.ID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.CorrelationToken == rec.CorrelationToken {
			continue
		}
		_, err := c.store.UpdateBooking(ctx, b.ID, func(bk *models.Booking) error {
			bk.CorrelationToken = rec.CorrelationToken
			bk.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
