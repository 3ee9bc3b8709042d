// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package propagate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/reconcile"
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

// seedIntake wires contact -> booking -> link -> submission the way the
// intake gateway leaves them after an accepted form.
func seedIntake(t *testing.T, st *store.Store, corrToken string, fields map[models.FieldName]string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	contact := &models.Contact{ID: "c1", Fields: map[models.FieldName]string{models.FieldIdentity: "Jonas Eld"}, CreatedAt: now}
	if err := st.CreateContact(ctx, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	booking := &models.Booking{ID: "b1", ArtistID: "a1", ContactID: "c1", Venue: "Loppen", Date: now.AddDate(0, 1, 0)}
	if err := st.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	link := &models.Link{ID: "l1", BookingID: "b1", ContactID: "c1", Token: "tok", Status: models.LinkStatusSubmitted, SubmissionID: "s1", CreatedAt: now}
	if err := st.CreateLink(ctx, link); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	sub := &models.Submission{
		ID:               "s1",
		LinkID:           "l1",
		BookingID:        "b1",
		CorrelationToken: corrToken,
		Fields:           fields,
		Status:           models.SubmissionPending,
		SubmittedAt:      now,
	}
	if err := st.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
}

func TestCommitFirstContact(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	fields := map[models.FieldName]string{
		models.FieldIdentity: "Jonas Eld",
		models.FieldEmail:    "jonas@loppen.example",
		models.FieldAddress:  "Refshalevej 16",
	}
	seedIntake(t, st, "corr-1", fields)

	rec := &reconcile.MergedRecord{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: fields}
	result, err := coord.Commit(ctx, rec)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !result.Completed || len(result.Steps) != len(Steps()) {
		t.Fatalf("result = %+v", result)
	}
	for _, sr := range result.Steps {
		if !sr.Done {
			t.Errorf("step %s not done", sr.Step)
		}
	}

	// The directory contact became the canonical record: same id, token
	// attached, merged fields applied.
	contact, err := st.GetContactByToken(ctx, "corr-1")
	if err != nil {
		t.Fatalf("GetContactByToken: %v", err)
	}
	if contact.ID != "c1" {
		t.Errorf("canonical contact id = %s, want the directory contact c1", contact.ID)
	}
	if contact.Fields[models.FieldEmail] != "jonas@loppen.example" {
		t.Errorf("contact fields = %v", contact.Fields)
	}
	if result.ContactID != "c1" {
		t.Errorf("result.ContactID = %s, want c1", result.ContactID)
	}

	// The submission is terminal with the merged fields and a timestamp.
	sub, err := st.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub.Status != models.SubmissionProcessed || sub.ProcessedAt == nil {
		t.Errorf("submission = %+v", sub)
	}

	// The booking picked up the token.
	booking, err := st.GetBooking(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if booking.CorrelationToken != "corr-1" {
		t.Errorf("booking token = %q, want corr-1", booking.CorrelationToken)
	}
}

func TestCommitIdempotent(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	fields := map[models.FieldName]string{
		models.FieldIdentity: "Jonas Eld",
		models.FieldEmail:    "jonas@loppen.example",
	}
	seedIntake(t, st, "corr-1", fields)
	rec := &reconcile.MergedRecord{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: fields}

	if _, err := coord.Commit(ctx, rec); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	result, err := coord.Commit(ctx, rec)
	if err != nil {
		t.Fatalf("replayed Commit: %v", err)
	}
	if !result.Completed {
		t.Errorf("replay result = %+v", result)
	}

	contacts, err := st.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 1 {
		t.Errorf("contacts after replay = %d, want 1", len(contacts))
	}
}

func TestCommitRejectedSubmission(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	fields := map[models.FieldName]string{models.FieldIdentity: "Jonas Eld", models.FieldEmail: "j@x"}
	seedIntake(t, st, "corr-1", fields)
	if _, err := st.UpdateSubmission(ctx, "s1", func(s *models.Submission) error {
		s.Status = models.SubmissionRejected
		s.RejectReason = "spam"
		return nil
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	rec := &reconcile.MergedRecord{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: fields}
	result, err := coord.Commit(ctx, rec)
	if !errors.Is(err, ErrSubmissionRejected) {
		t.Fatalf("err = %v, want ErrSubmissionRejected", err)
	}
	if result.Completed {
		t.Error("result must not be completed")
	}
	// All four steps are reported, none of them done.
	if len(result.Steps) != len(Steps()) {
		t.Errorf("steps = %d, want %d", len(result.Steps), len(Steps()))
	}
	for _, sr := range result.Steps {
		if sr.Done {
			t.Errorf("step %s must stay pending after the refusal", sr.Step)
		}
	}
}

func TestCommitRejectedLeavesCanonicalUntouched(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	// A vetted canonical record already exists under the token.
	canonical := &models.Contact{
		ID:               "c1",
		CorrelationToken: "corr-1",
		Fields: map[models.FieldName]string{
			models.FieldIdentity: "Jonas Eld",
			models.FieldPhone:    "0102030405",
		},
	}
	if err := st.UpsertContact(ctx, canonical); err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	sub := &models.Submission{
		ID: "s1", LinkID: "l1", BookingID: "b1", CorrelationToken: "corr-1",
		Fields:       map[models.FieldName]string{models.FieldIdentity: "SPAMMER"},
		Status:       models.SubmissionRejected,
		RejectReason: "spam",
		SubmittedAt:  time.Now().UTC(),
	}
	if err := st.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	rec := &reconcile.MergedRecord{
		SubmissionID:     "s1",
		CorrelationToken: "corr-1",
		Fields:           map[models.FieldName]string{models.FieldIdentity: "SPAMMER", models.FieldEmail: "x@y"},
	}
	if _, err := coord.Commit(ctx, rec); !errors.Is(err, ErrSubmissionRejected) {
		t.Fatalf("err = %v, want ErrSubmissionRejected", err)
	}

	// The refused commit must not have written anything to the canonical
	// record.
	got, err := st.GetContactByToken(ctx, "corr-1")
	if err != nil {
		t.Fatalf("GetContactByToken: %v", err)
	}
	if got.Fields[models.FieldIdentity] != "Jonas Eld" || got.Fields[models.FieldPhone] != "0102030405" {
		t.Errorf("canonical fields = %v, vetted record must survive", got.Fields)
	}
	if _, ok := got.Fields[models.FieldEmail]; ok {
		t.Errorf("canonical fields = %v, rejected data must not leak in", got.Fields)
	}
}

func TestCommitFansOutToSiblings(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	fields := map[models.FieldName]string{models.FieldIdentity: "Jonas Eld", models.FieldPhone: "+45 555"}
	seedIntake(t, st, "corr-1", fields)

	// A second pending submission and a rejected one under the same token.
	now := time.Now().UTC()
	sibling := &models.Submission{
		ID: "s2", LinkID: "l2", BookingID: "b2", CorrelationToken: "corr-1",
		Fields: map[models.FieldName]string{models.FieldIdentity: "J. Eld"}, Status: models.SubmissionPending, SubmittedAt: now,
	}
	if err := st.CreateSubmission(ctx, sibling); err != nil {
		t.Fatalf("seed sibling: %v", err)
	}
	rejected := &models.Submission{
		ID: "s3", LinkID: "l3", BookingID: "b3", CorrelationToken: "corr-1",
		Status: models.SubmissionRejected, RejectReason: "junk", SubmittedAt: now,
	}
	if err := st.CreateSubmission(ctx, rejected); err != nil {
		t.Fatalf("seed rejected: %v", err)
	}

	rec := &reconcile.MergedRecord{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: fields}
	if _, err := coord.Commit(ctx, rec); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, _ := st.GetSubmission(ctx, "s2")
	if got.Status != models.SubmissionProcessed {
		t.Errorf("sibling status = %s, want processed", got.Status)
	}
	if got.Fields[models.FieldPhone] != "+45 555" {
		t.Errorf("sibling fields = %v, want merged record", got.Fields)
	}

	got, _ = st.GetSubmission(ctx, "s3")
	if got.Status != models.SubmissionRejected || got.RejectReason != "junk" {
		t.Errorf("rejected sibling must keep its rejection, got %+v", got)
	}
}

func TestCommitAttachesTokenToAllContactBookings(t *testing.T) {
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	fields := map[models.FieldName]string{models.FieldIdentity: "Jonas Eld", models.FieldEmail: "j@x"}
	seedIntake(t, st, "corr-1", fields)

	other := &models.Booking{ID: "b2", ArtistID: "a1", ContactID: "c1", Venue: "Loppen", Date: time.Now().UTC().AddDate(0, 2, 0)}
	if err := st.CreateBooking(ctx, other); err != nil {
		t.Fatalf("seed second booking: %v", err)
	}

	rec := &reconcile.MergedRecord{SubmissionID: "s1", CorrelationToken: "corr-1", Fields: fields}
	if _, err := coord.Commit(ctx, rec); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	byToken, err := st.ListBookingsByToken(ctx, "corr-1")
	if err != nil {
		t.Fatalf("ListBookingsByToken: %v", err)
	}
	if len(byToken) != 2 {
		t.Errorf("bookings under token = %d, want 2", len(byToken))
	}
}

func TestCommitCreatesContactWhenLinkChainBroken(t *testing.T) {
	// When nothing carries the token and the submission's link chain does
	// not resolve, commit still succeeds with a freshly minted contact.
	st := newTestStore(t)
	coord := NewCoordinator(st)
	ctx := context.Background()

	sub := &models.Submission{
		ID: "s9", LinkID: "gone", BookingID: "gone", CorrelationToken: "corr-9",
		Fields: map[models.FieldName]string{models.FieldIdentity: "Ad Hoc"}, Status: models.SubmissionPending, SubmittedAt: time.Now().UTC(),
	}
	if err := st.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	fields := map[models.FieldName]string{models.FieldIdentity: "Ad Hoc", models.FieldEmail: "a@h"}
	rec := &reconcile.MergedRecord{SubmissionID: "s9", CorrelationToken: "corr-9", Fields: fields}
	result, err := coord.Commit(ctx, rec)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if result.ContactID == "" {
		t.Fatal("a contact id must be minted")
	}
	contact, err := st.GetContactByToken(ctx, "corr-9")
	if err != nil {
		t.Fatalf("GetContactByToken: %v", err)
	}
	if contact.Fields[models.FieldIdentity] != "Ad Hoc" {
		t.Errorf("contact = %+v", contact)
	}
}
