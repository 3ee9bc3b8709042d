// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package reconcile builds the three-way comparison between a submission and
// the canonical contact record and validates the operator's merge.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/backlinehq/backline/internal/logging"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/store"
)

// ErrNotPending indicates an operation that requires a pending submission
// found it already reviewed.
var ErrNotPending = errors.New("submission is not pending")

// ValidationError reports why a merged record cannot be committed.
type ValidationError struct {
	// Missing names required fields without a merged value. The contact
	// channel requirement is reported as "email or phone".
	Missing []string `json:"missing,omitempty"`

	// Conflicts names fields where submitted and canonical values still
	// disagree and the operator has not chosen either.
	Conflicts []models.FieldName `json:"conflicts,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Conflicts) > 0 {
		names := make([]string, len(e.Conflicts))
		for i, f := range e.Conflicts {
			names[i] = string(f)
		}
		parts = append(parts, "unresolved conflicts: "+strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// Engine drives the reconciliation workflow.
type Engine struct {
	store *store.Store
}

// NewEngine creates a reconciliation engine.
func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

// LoadComparison builds the three-way view for a submission. Every
// recognized field gets a row even if both sides are empty, so the operator
// always sees the full form. Merged defaults to the canonical value when one
// exists, else the submitted value; a conflict is flagged when both sides
// are non-empty and disagree, and is never resolved automatically.
func (e *Engine) LoadComparison(ctx context.Context, submissionID string) (*Comparison, error) {
	sub, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load comparison: %w", err)
	}

	canonical := map[models.FieldName]string{}
	contact, err := e.store.GetContactByToken(ctx, sub.CorrelationToken)
	if err == nil {
		canonical = contact.Fields
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load comparison: canonical contact: %w", err)
	}

	cmp := &Comparison{
		SubmissionID:     sub.ID,
		CorrelationToken: sub.CorrelationToken,
		Fields:           make(map[models.FieldName]*FieldComparison, len(models.KnownFields())),
	}
	for _, name := range models.KnownFields() {
		submitted := sub.Fields[name]
		canon := canonical[name]
		merged := canon
		if merged == "" {
			merged = submitted
		}
		cmp.Fields[name] = &FieldComparison{
			Submitted: submitted,
			Canonical: canon,
			Merged:    merged,
			Conflict:  submitted != "" && canon != "" && submitted != canon,
		}
	}
	return cmp, nil
}

// Validate checks a comparison and returns the merged record ready for
// commit. Identity is required, as is at least one contact channel (email or
// phone). Remaining conflict markers also fail validation: the operator must
// make the choice explicit, even when it is the canonical default.
func (e *Engine) Validate(c *Comparison) (*MergedRecord, error) {
	verr := &ValidationError{}

	merged := c.Merged()
	if merged[models.FieldIdentity] == "" {
		verr.Missing = append(verr.Missing, string(models.FieldIdentity))
	}
	if merged[models.FieldEmail] == "" && merged[models.FieldPhone] == "" {
		verr.Missing = append(verr.Missing, "email or phone")
	}
	for _, name := range models.KnownFields() {
		if fc := c.Fields[name]; fc != nil && fc.Conflict {
			verr.Conflicts = append(verr.Conflicts, name)
		}
	}

	if len(verr.Missing) > 0 || len(verr.Conflicts) > 0 {
		return nil, verr
	}
	return &MergedRecord{
		SubmissionID:     c.SubmissionID,
		CorrelationToken: c.CorrelationToken,
		Fields:           merged,
	}, nil
}

// Reject moves a pending submission to its terminal Rejected state. The
// record stays in the store for audit; nothing else is touched.
func (e *Engine) Reject(ctx context.Context, submissionID, reason string) (*models.Submission, error) {
	sub, err := e.store.UpdateSubmission(ctx, submissionID, func(s *models.Submission) error {
		if s.Status != models.SubmissionPending {
			return fmt.Errorf("%w: %s", ErrNotPending, s.Status)
		}
		s.Status = models.SubmissionRejected
		s.RejectReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("submission_id", submissionID).
		Str("reason", reason).
		Msg("Submission rejected")
	return sub, nil
}
