package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/booking"
	"taxibooking/internal/pricing"
)

func TestWriteErr(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrDraftExpired, http.StatusGone, "DRAFT_EXPIRED"},
		{ErrStepIncomplete, http.StatusConflict, "STEP_INCOMPLETE"},
		{ErrDraftSubmitted, http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: %q", ErrUnknownStep, "payment"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{pricing.ErrPriceUnavailable, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeErr(rr, tc.err)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil || env.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %q (%v)", tc.code, env.Error.Code, err)
			}
		})
	}
}

func TestSaveStepHandler(t *testing.T) {
	clk := &movingClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := memStore{}
	svc := NewService(store, fakeQuoter{allowed: true}, &fakeBooker{byKey: map[string]booking.Booking{}}, clk, time.Hour)
	d, err := svc.New(context.Background())
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}

	r := chi.NewRouter()
	r.Put("/v1/booking-drafts/{id}/steps/{step}", Handlers{Service: svc}.SaveStep)

	put := func(step, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/v1/booking-drafts/"+d.ID+"/steps/"+step, strings.NewReader(body)))
		return rr
	}

	if rr := put("review", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("review cannot be saved, got %d", rr.Code)
	}
	if rr := put("trip", `{"vehicleType":"sedan","passengers":2}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("trip needs a package or route, got %d", rr.Code)
	}
	if rr := put("schedule", `{"travelDate":"2025-06-10","pickupLocation":"Madurai"}`); rr.Code != http.StatusConflict {
		t.Fatalf("schedule before trip must conflict, got %d", rr.Code)
	}
	rr := put("trip", `{"routeId":"1f0e6a9c-2b7d-4d55-8a3e-6c1b2f3d4e5f","vehicleType":"sedan","passengers":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got Draft
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Step != StepSchedule || got.Data.Trip == nil || got.Data.Trip.RouteID == "" {
		t.Fatalf("unexpected draft %+v", got)
	}
}
