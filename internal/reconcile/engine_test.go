// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedSubmission(t *testing.T, st *store.Store, fields map[models.FieldName]string) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:               "s1",
		LinkID:           "l1",
		BookingID:        "b1",
		CorrelationToken: "corr-1",
		Fields:           fields,
		Status:           models.SubmissionPending,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := st.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return sub
}

func TestLoadComparisonNoCanonical(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(st)
	seedSubmission(t, st, map[models.FieldName]string{
		models.FieldIdentity: "Nora Vang",
		models.FieldEmail:    "nora@venue.example",
	})

	cmp, err := eng.LoadComparison(context.Background(), "s1")
	if err != nil {
		t.Fatalf("LoadComparison: %v", err)
	}
	if len(cmp.Fields) != len(models.KnownFields()) {
		t.Errorf("rows = %d, want one per known field", len(cmp.Fields))
	}

	fc := cmp.Fields[models.FieldIdentity]
	if fc.Submitted != "Nora Vang" || fc.Canonical != "" || fc.Merged != "Nora Vang" || fc.Conflict {
		t.Errorf("identity row = %+v", fc)
	}
	// Fields absent on both sides still get an empty row.
	if fc := cmp.Fields[models.FieldVATID]; fc == nil || fc.Merged != "" || fc.Conflict {
		t.Errorf("vat_id row = %+v", fc)
	}
}

func TestLoadComparisonCanonicalDefaultsAndConflicts(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(st)
	ctx := context.Background()

	contact := &models.Contact{
		ID:               "c1",
		CorrelationToken: "corr-1",
		Fields: map[models.FieldName]string{
			models.FieldIdentity: "Nora Vang",
			models.FieldPhone:    "+45 1234",
			models.FieldEmail:    "old@venue.example",
		},
	}
	if err := st.UpsertContact(ctx, contact); err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	seedSubmission(t, st, map[models.FieldName]string{
		models.FieldIdentity: "Nora Vang",
		models.FieldEmail:    "new@venue.example",
	})

	cmp, err := eng.LoadComparison(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadComparison: %v", err)
	}

	// Agreement: no conflict.
	if fc := cmp.Fields[models.FieldIdentity]; fc.Conflict || fc.Merged != "Nora Vang" {
		t.Errorf("identity row = %+v", fc)
	}
	// Canonical-only value survives untouched.
	if fc := cmp.Fields[models.FieldPhone]; fc.Merged != "+45 1234" || fc.Conflict {
		t.Errorf("phone row = %+v", fc)
	}
	// Both sides set and different: conflict, canonical is the default.
	fc := cmp.Fields[models.FieldEmail]
	if !fc.Conflict || fc.Merged != "old@venue.example" {
		t.Errorf("email row = %+v", fc)
	}
}

func TestSetFieldResolvesConflict(t *testing.T) {
	cmp := &Comparison{
		SubmissionID:     "s1",
		CorrelationToken: "corr-1",
		Fields: map[models.FieldName]*FieldComparison{
			models.FieldEmail: {Submitted: "new@x", Canonical: "old@x", Merged: "old@x", Conflict: true},
		},
	}

	if err := cmp.SetField(models.FieldEmail, "new@x"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	fc := cmp.Fields[models.FieldEmail]
	if fc.Conflict || fc.Merged != "new@x" {
		t.Errorf("row after SetField = %+v", fc)
	}

	if err := cmp.SetField("favorite_color", "blue"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	eng := NewEngine(nil)

	build := func(fields map[models.FieldName]string, conflicts ...models.FieldName) *Comparison {
		c := &Comparison{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: map[models.FieldName]*FieldComparison{}}
		for _, name := range models.KnownFields() {
			c.Fields[name] = &FieldComparison{Merged: fields[name]}
		}
		for _, name := range conflicts {
			c.Fields[name].Conflict = true
		}
		return c
	}

	// Complete record validates.
	rec, err := eng.Validate(build(map[models.FieldName]string{
		models.FieldIdentity: "Nora Vang",
		models.FieldPhone:    "+45 1234",
	}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rec.Fields[models.FieldIdentity] != "Nora Vang" {
		t.Errorf("merged record = %+v", rec)
	}

	// Missing identity.
	_, err = eng.Validate(build(map[models.FieldName]string{models.FieldEmail: "x@y"}))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Missing) == 0 {
		t.Fatalf("err = %v, want ValidationError with missing identity", err)
	}

	// Identity present but no contact channel.
	_, err = eng.Validate(build(map[models.FieldName]string{models.FieldIdentity: "Nora"}))
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	found := false
	for _, m := range verr.Missing {
		if m == "email or phone" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing = %v, want \"email or phone\"", verr.Missing)
	}

	// Unresolved conflict blocks commit even with all required fields.
	_, err = eng.Validate(build(map[models.FieldName]string{
		models.FieldIdentity: "Nora",
		models.FieldEmail:    "x@y",
	}, models.FieldEmail))
	if !errors.As(err, &verr) || len(verr.Conflicts) != 1 {
		t.Fatalf("err = %v, want one unresolved conflict", err)
	}
}

func TestValidateCanonicalPhoneSatisfiesChannel(t *testing.T) {
	// A submission that omits phone must still validate when the canonical
	// record already carries one, without any operator action.
	st := newTestStore(t)
	eng := NewEngine(st)
	ctx := context.Background()

	contact := &models.Contact{
		ID:               "c1",
		CorrelationToken: "corr-1",
		Fields: map[models.FieldName]string{
			models.FieldIdentity: "Nora Vang",
			models.FieldPhone:    "+45 1234",
		},
	}
	if err := st.UpsertContact(ctx, contact); err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	seedSubmission(t, st, map[models.FieldName]string{models.FieldIdentity: "Nora Vang"})

	cmp, err := eng.LoadComparison(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadComparison: %v", err)
	}
	rec, err := eng.Validate(cmp)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rec.Fields[models.FieldPhone] != "+45 1234" {
		t.Errorf("phone = %q, must survive from canonical", rec.Fields[models.FieldPhone])
	}
}

func TestReject(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(st)
	ctx := context.Background()
	seedSubmission(t, st, map[models.FieldName]string{models.FieldIdentity: "Nora"})

	sub, err := eng.Reject(ctx, "s1", "duplicate of earlier form")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if sub.Status != models.SubmissionRejected || sub.RejectReason == "" {
		t.Errorf("submission = %+v", sub)
	}

	// Rejecting twice is refused; the record is terminal.
	if _, err := eng.Reject(ctx, "s1", "again"); !errors.Is(err, ErrNotPending) {
		t.Errorf("second reject err = %v, want ErrNotPending", err)
	}
}
