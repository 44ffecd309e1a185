package booking

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taxibooking/internal/pricing"
	"taxibooking/internal/testutil"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{Status("lost"), StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestRequestHash_IgnoresWhitespaceAndEmailCase(t *testing.T) {
	a := validInput()
	a.CustomerEmail = "Priya@Example.com"
	b := a
	b.CustomerEmail = " priya@example.com "
	b.PickupLocation = "Madurai Junction  "
	if RequestHash(a) != RequestHash(b) {
		t.Fatalf("expected equal hashes")
	}
	b.Passengers++
	if RequestHash(a) == RequestHash(b) {
		t.Fatalf("expected different hashes")
	}
}

func TestPhoneMatches(t *testing.T) {
	cases := []struct {
		a, b string
		ok   bool
	}{
		{"+91 98400 12345", "9840012345", true},
		{"098400-12345", "+919840012345", true},
		{"9840012345", "9840012346", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := PhoneMatches(tc.a, tc.b); got != tc.ok {
			t.Fatalf("%q vs %q: expected %v", tc.a, tc.b, tc.ok)
		}
	}
}

func TestNewReference_Unique(t *testing.T) {
	d := testutil.Date("2025-01-14")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ref := NewReference(d)
		if !strings.HasPrefix(ref, "TB250114-") || len(ref) != len("TB250114-")+6 {
			t.Fatalf("unexpected reference %s", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %s", ref)
		}
		seen[ref] = true
	}
}

func TestCreate_RequiresIdempotencyKey(t *testing.T) {
	rr := httptest.NewRecorder()
	Handlers{}.Create(rr, httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{}`)))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "IDEMPOTENCY_KEY_REQUIRED") {
		t.Fatalf("expected 400 IDEMPOTENCY_KEY_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{NotAllowedError{Reason: "sold_out"}, http.StatusConflict, "BOOKING_NOT_ALLOWED"},
		{fmt.Errorf("tx: %w", ErrIdempotencyConflict), http.StatusConflict, "IDEMPOTENCY_CONFLICT"},
		{fmt.Errorf("%w: pending -> completed", ErrInvalidTransition), http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{pricing.ErrPriceUnavailable, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE"},
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteError(rr, tc.err)
		if rr.Code != tc.status || !strings.Contains(rr.Body.String(), tc.code) {
			t.Fatalf("%v: expected %d %s, got %d %s", tc.err, tc.status, tc.code, rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	WriteError(rr, NotAllowedError{Reason: "blocked"})
	if !strings.Contains(rr.Body.String(), `"reason":"blocked"`) {
		t.Fatalf("expected reason detail, got %s", rr.Body.String())
	}
}
