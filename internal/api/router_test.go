// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/backlinehq/backline/internal/booking"
	"github.com/backlinehq/backline/internal/intake"
	"github.com/backlinehq/backline/internal/links"
	"github.com/backlinehq/backline/internal/models"
	"github.com/backlinehq/backline/internal/propagate"
	"github.com/backlinehq/backline/internal/reconcile"
	"github.com/backlinehq/backline/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ls := links.NewService(st, 0)
	h := NewHandler(
		st,
		ls,
		intake.NewGateway(st, ls),
		reconcile.NewEngine(st),
		propagate.NewCoordinator(st),
		booking.NewService(st),
	)
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	srv := httptest.NewServer(NewRouter(h, mw).Setup())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doJSON(t *testing.T, method, url string, body interface{}) (int, *envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	env := &envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env *envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// seed creates artist, contact and booking through the API and returns the
// booking id.
func seed(t *testing.T, base string) string {
	t.Helper()

	status, env := doJSON(t, http.MethodPost, base+"/api/v1/artists", map[string]string{"name": "Hollow Pines", "genre": "folk"})
	if status != http.StatusCreated {
		t.Fatalf("create artist: %d %+v", status, env.Error)
	}
	var artist models.Artist
	decodeData(t, env, &artist)

	status, env = doJSON(t, http.MethodPost, base+"/api/v1/contacts", map[string]string{"identity": "Sam Ortega"})
	if status != http.StatusCreated {
		t.Fatalf("create contact: %d %+v", status, env.Error)
	}
	var contact models.Contact
	decodeData(t, env, &contact)

	status, env = doJSON(t, http.MethodPost, base+"/api/v1/bookings", map[string]interface{}{
		"artist_id":  artist.ID,
		"contact_id": contact.ID,
		"venue":      "Kantine am Berghain",
		"date":       time.Date(2026, 12, 1, 20, 0, 0, 0, time.UTC),
	})
	if status != http.StatusCreated {
		t.Fatalf("create booking: %d %+v", status, env.Error)
	}
	var b models.Booking
	decodeData(t, env, &b)
	return b.ID
}

func TestIntakeRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	bookingID := seed(t, srv.URL)

	// Issue the one-time link.
	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings/"+bookingID+"/link", nil)
	if status != http.StatusOK {
		t.Fatalf("issue link: %d %+v", status, env.Error)
	}
	var link models.Link
	decodeData(t, env, &link)
	if link.Token == "" {
		t.Fatal("link token empty")
	}

	// The anonymous form renders from the token alone.
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/public/forms/"+link.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("get form: %d %+v", status, env.Error)
	}
	var form struct {
		BookingSummary string   `json:"booking_summary"`
		Fields         []string `json:"fields"`
	}
	decodeData(t, env, &form)
	if form.BookingSummary == "" || len(form.Fields) == 0 {
		t.Errorf("form = %+v", form)
	}

	// Submit once: accepted.
	body := map[string]interface{}{"fields": map[string]string{
		"identity": "Sam Ortega",
		"email":    "sam@kantine.example",
	}}
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/public/forms/"+link.Token, body)
	if status != http.StatusOK {
		t.Fatalf("submit: %d %+v", status, env.Error)
	}

	// Submit twice: refused with a stable error code.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/public/forms/"+link.Token, body)
	if status != http.StatusConflict {
		t.Fatalf("second submit status = %d, want 409", status)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeAlreadyUsed {
		t.Errorf("error = %+v, want ALREADY_USED", env.Error)
	}

	// Exactly one submission reached the queue.
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/submissions", nil)
	if status != http.StatusOK {
		t.Fatalf("list submissions: %d", status)
	}
	var subs []models.Submission
	decodeData(t, env, &subs)
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	subID := subs[0].ID

	// The comparison shows one row per known field.
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/submissions/"+subID+"/comparison", nil)
	if status != http.StatusOK {
		t.Fatalf("comparison: %d %+v", status, env.Error)
	}

	// Commit completes all four steps.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+subID+"/commit", map[string]interface{}{})
	if status != http.StatusOK {
		t.Fatalf("commit: %d %+v", status, env.Error)
	}
	var result propagate.CommitResult
	decodeData(t, env, &result)
	if !result.Completed || result.ContactID == "" {
		t.Errorf("commit result = %+v", result)
	}

	// The contact now carries the merged fields.
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/contacts/"+result.ContactID, nil)
	if status != http.StatusOK {
		t.Fatalf("get contact: %d", status)
	}
	var contact models.Contact
	decodeData(t, env, &contact)
	if contact.Fields[models.FieldEmail] != "sam@kantine.example" {
		t.Errorf("contact fields = %v", contact.Fields)
	}
	if contact.CorrelationToken == "" {
		t.Error("contact must carry the correlation token after commit")
	}
}

func TestPublicFormUnknownToken(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/public/forms/not-a-token", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeInvalidToken {
		t.Errorf("error = %+v, want INVALID_TOKEN", env.Error)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", map[string]string{"artist_id": "a"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/bookings/ghost", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestRejectThenCommitConflicts(t *testing.T) {
	srv := newTestServer(t)
	bookingID := seed(t, srv.URL)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings/"+bookingID+"/link", nil)
	if status != http.StatusOK {
		t.Fatalf("issue link: %d", status)
	}
	var link models.Link
	decodeData(t, env, &link)

	body := map[string]interface{}{"fields": map[string]string{"identity": "Sam Ortega", "phone": "+49 30 555"}}
	if status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/public/forms/"+link.Token, body); status != http.StatusOK {
		t.Fatalf("submit: %d %+v", status, env.Error)
	}

	_, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/submissions", nil)
	var subs []models.Submission
	decodeData(t, env, &subs)
	subID := subs[0].ID

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+subID+"/reject", map[string]string{"reason": "test data"})
	if status != http.StatusOK {
		t.Fatalf("reject: %d %+v", status, env.Error)
	}

	// Committing a rejected submission is a conflict, not a silent success.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+subID+"/commit", map[string]interface{}{})
	if status != http.StatusConflict {
		t.Fatalf("commit after reject: %d, want 409", status)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeConflict {
		t.Errorf("error = %+v, want CONFLICT", env.Error)
	}
}

func TestContractFlagEndpoint(t *testing.T) {
	srv := newTestServer(t)
	bookingID := seed(t, srv.URL)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/contracts/"+bookingID, nil)
	if status != http.StatusOK {
		t.Fatalf("get contract: %d %+v", status, env.Error)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/v1/contracts/"+bookingID+"/flags/contract_sent", nil)
	if status != http.StatusOK {
		t.Fatalf("cycle flag: %d %+v", status, env.Error)
	}
	var contract models.Contract
	decodeData(t, env, &contract)
	if contract.Flags[models.FlagContractSent] != models.FlagValidated {
		t.Errorf("flag = %s, want validated", contract.Flags[models.FlagContractSent])
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		status, env := doJSON(t, http.MethodGet, srv.URL+path, nil)
		if status != http.StatusOK {
			t.Errorf("%s: %d %+v", path, status, env.Error)
		}
	}
}

func TestRateLimitFromConfig(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ls := links.NewService(st, 0)
	h := NewHandler(st, ls, intake.NewGateway(st, ls), reconcile.NewEngine(st),
		propagate.NewCoordinator(st), booking.NewService(st))
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitPublic: RateLimitConfig{Requests: 1, Window: time.Minute},
	})
	srv := httptest.NewServer(NewRouter(h, mw).Setup())
	t.Cleanup(srv.Close)

	get := func() int {
		resp, err := http.Get(srv.URL + "/api/v1/public/forms/some-token")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	// The configured limit of one request per window must apply to the
	// public group: first request passes the limiter, second is throttled.
	if status := get(); status != http.StatusNotFound {
		t.Errorf("first request status = %d, want 404", status)
	}
	if status := get(); status != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", status)
	}

	// The operator group runs under its own default limit and is unaffected.
	resp, err := http.Get(srv.URL + "/api/v1/bookings")
	if err != nil {
		t.Fatalf("get bookings: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("operator request status = %d, want 200", resp.StatusCode)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
