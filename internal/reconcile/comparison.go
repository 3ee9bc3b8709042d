// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package reconcile

import (
	"fmt"

	"github.com/backlinehq/backline/internal/models"
)

// FieldComparison is one row of the three-way comparison view.
type FieldComparison struct {
	Submitted string `json:"submitted"`
	Canonical string `json:"canonical"`
	Merged    string `json:"merged"`
	Conflict  bool   `json:"conflict"`
}

// Comparison is the in-memory working copy an operator edits before
// validation. Nothing here touches the store; only a later commit does.
type Comparison struct {
	SubmissionID     string                                `json:"submission_id"`
	CorrelationToken string                                `json:"correlation_token"`
	Fields           map[models.FieldName]*FieldComparison `json:"fields"`
}

// SetField records an operator's choice for one field. It only mutates the
// merged value of this comparison and clears the conflict marker, since an
// explicit choice resolves the conflict whichever side it picks.
func (c *Comparison) SetField(field models.FieldName, value string) error {
	fc, ok := c.Fields[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	fc.Merged = value
	fc.Conflict = false
	return nil
}

// Merged flattens the comparison into the per-field merged values,
// dropping empties.
func (c *Comparison) Merged() map[models.FieldName]string {
	out := make(map[models.FieldName]string, len(c.Fields))
	for name, fc := range c.Fields {
		if fc.Merged != "" {
			out[name] = fc.Merged
		}
	}
	return out
}

// MergedRecord is the validated output of reconciliation, the only input
// the propagation coordinator accepts.
type MergedRecord struct {
	SubmissionID     string                      `json:"submission_id"`
	CorrelationToken string                      `json:"correlation_token"`
	Fields           map[models.FieldName]string `json:"fields"`
}
