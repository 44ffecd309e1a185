package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxibooking/internal/availability"
	"taxibooking/internal/booking"
	"taxibooking/internal/pricing"
)

var (
	trip      = TripData{PackageID: "1f0e6a9c-2b7d-4d55-8a3e-6c1b2f3d4e5f", VehicleType: "sedan", Passengers: 2}
	schedule  = ScheduleData{TravelDate: "2025-06-10", PickupTime: "06:00", PickupLocation: "Hotel Madurai Residency"}
	traveller = TravellerData{CustomerName: "Arun", CustomerPhone: "9840012345"}
)

func TestDraft_Save(t *testing.T) {
	d := Draft{Step: StepTrip}

	if err := d.Save(StepSchedule, schedule); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("skipping ahead must fail, got %v", err)
	}
	if err := d.Save(StepTrip, trip); err != nil || d.Step != StepSchedule {
		t.Fatalf("expected schedule step, got %s err=%v", d.Step, err)
	}
	if err := d.Save(StepSchedule, schedule); err != nil || d.Step != StepTraveller {
		t.Fatalf("expected traveller step, got %s err=%v", d.Step, err)
	}
	d.Data.Quote = &QuoteData{Price: "2500.00", Currency: "INR"}
	if err := d.Save(StepTraveller, traveller); err != nil || d.Step != StepReview {
		t.Fatalf("expected review step, got %s err=%v", d.Step, err)
	}
	if err := d.Save(StepReview, nil); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("review has no payload, got %v", err)
	}

	// Saving the same trip again keeps the quote but sends the customer back through schedule.
	if err := d.Save(StepTrip, trip); err != nil || d.Step != StepSchedule || d.Data.Quote == nil {
		t.Fatalf("unexpected state step=%s quote=%v err=%v", d.Step, d.Data.Quote, err)
	}

	changed := trip
	changed.VehicleType = "suv"
	if err := d.Save(StepTrip, changed); err != nil {
		t.Fatalf("save trip: %v", err)
	}
	if d.Data.Quote != nil {
		t.Fatalf("changing the trip must clear the quote")
	}
	if d.Data.Schedule == nil || d.Data.Traveller == nil {
		t.Fatalf("later answers are kept for prefill")
	}
}

func TestDraft_BackAndBookingInput(t *testing.T) {
	d := Draft{Step: StepTrip}
	d.Back()
	if d.Step != StepTrip {
		t.Fatalf("back from trip stays on trip, got %s", d.Step)
	}
	if _, err := d.BookingInput(); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("expected ErrStepIncomplete, got %v", err)
	}

	_ = d.Save(StepTrip, trip)
	_ = d.Save(StepSchedule, schedule)
	_ = d.Save(StepTraveller, traveller)
	in, err := d.BookingInput()
	if err != nil {
		t.Fatalf("booking input: %v", err)
	}
	if in.PackageID != trip.PackageID || in.TravelDate != "2025-06-10" || in.CustomerPhone != "9840012345" || in.Passengers != 2 {
		t.Fatalf("unexpected input %+v", in)
	}
	d.Back()
	if d.Step != StepTraveller {
		t.Fatalf("expected traveller, got %s", d.Step)
	}
}

func TestParseStep(t *testing.T) {
	if s, err := ParseStep("schedule"); err != nil || s != StepSchedule {
		t.Fatalf("unexpected %s %v", s, err)
	}
	if _, err := ParseStep("payment"); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
	if StepReview.Next() != StepReview {
		t.Fatalf("review is terminal")
	}
}

type memStore map[string]Draft

func (m memStore) Insert(_ context.Context, d Draft) error { m[d.ID] = d; return nil }

func (m memStore) Get(_ context.Context, id string) (Draft, error) {
	d, ok := m[id]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (m memStore) Update(_ context.Context, d Draft) error { m[d.ID] = d; return nil }

type fakeQuoter struct {
	allowed bool
	err     error
}

func (f fakeQuoter) Quote(_ context.Context, t pricing.Trip) (pricing.Quote, error) {
	if f.err != nil {
		return pricing.Quote{}, f.err
	}
	q := pricing.Quote{Price: "2500.00", Currency: "INR", Season: "Peak", BookingAllowed: f.allowed}
	if !f.allowed {
		q.Availability.Reason = availability.ReasonSoldOut
	}
	return q, nil
}

type fakeBooker struct {
	byKey map[string]booking.Booking
	calls int
}

func (f *fakeBooker) Create(_ context.Context, in booking.CreateInput, key string) (booking.Booking, bool, error) {
	f.calls++
	if b, ok := f.byKey[key]; ok {
		return b, false, nil
	}
	b := booking.Booking{ID: "booking-1", Reference: "TB250610-ABC123", CustomerName: in.CustomerName, Status: booking.StatusPending}
	f.byKey[key] = b
	return b, true, nil
}

type movingClock struct{ now time.Time }

func (c *movingClock) Now() time.Time { return c.now }

func TestService_Flow(t *testing.T) {
	ctx := context.Background()
	clk := &movingClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := memStore{}
	booker := &fakeBooker{byKey: map[string]booking.Booking{}}
	svc := NewService(store, fakeQuoter{allowed: true}, booker, clk, time.Hour)

	d, err := svc.New(ctx)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := svc.Submit(ctx, d.ID); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("submit before review must fail, got %v", err)
	}
	if _, err := svc.SaveStep(ctx, d.ID, StepTrip, trip); err != nil {
		t.Fatalf("trip: %v", err)
	}
	d, err = svc.SaveStep(ctx, d.ID, StepSchedule, schedule)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if d.Data.Quote == nil || d.Data.Quote.Price != "2500.00" {
		t.Fatalf("expected quote after schedule, got %+v", d.Data.Quote)
	}

	// Saving slides the expiry forward.
	clk.now = clk.now.Add(50 * time.Minute)
	d, err = svc.SaveStep(ctx, d.ID, StepTraveller, traveller)
	if err != nil {
		t.Fatalf("traveller: %v", err)
	}
	if !d.ExpiresAt.Equal(clk.now.Add(time.Hour)) {
		t.Fatalf("expected sliding expiry, got %s", d.ExpiresAt)
	}

	b, d, err := svc.Submit(ctx, d.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if d.SubmittedBookingID == nil || *d.SubmittedBookingID != b.ID {
		t.Fatalf("expected draft linked to booking")
	}
	again, _, err := svc.Submit(ctx, d.ID)
	if err != nil || again.ID != b.ID {
		t.Fatalf("resubmit must return the same booking, got %s err=%v", again.ID, err)
	}
	if _, ok := booker.byKey["draft:"+d.ID]; !ok {
		t.Fatalf("expected the draft id as idempotency key")
	}
	if _, err := svc.SaveStep(ctx, d.ID, StepTraveller, traveller); !errors.Is(err, ErrDraftSubmitted) {
		t.Fatalf("submitted drafts are read-only, got %v", err)
	}

	// Submitted drafts stay readable after expiry.
	clk.now = clk.now.Add(48 * time.Hour)
	if _, err := svc.Get(ctx, d.ID); err != nil {
		t.Fatalf("get submitted draft: %v", err)
	}
}

func TestService_Expired(t *testing.T) {
	ctx := context.Background()
	clk := &movingClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewService(memStore{}, fakeQuoter{allowed: true}, &fakeBooker{byKey: map[string]booking.Booking{}}, clk, time.Hour)

	d, _ := svc.New(ctx)
	clk.now = clk.now.Add(time.Hour)
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, ErrDraftExpired) {
		t.Fatalf("expected ErrDraftExpired, got %v", err)
	}
	if _, err := svc.SaveStep(ctx, d.ID, StepTrip, trip); !errors.Is(err, ErrDraftExpired) {
		t.Fatalf("expected ErrDraftExpired, got %v", err)
	}
	if _, err := svc.Back(ctx, d.ID); !errors.Is(err, ErrDraftExpired) {
		t.Fatalf("expected ErrDraftExpired, got %v", err)
	}
}

func TestService_ScheduleRejectsUnbookableDate(t *testing.T) {
	ctx := context.Background()
	clk := &movingClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := memStore{}
	svc := NewService(store, fakeQuoter{allowed: false}, &fakeBooker{byKey: map[string]booking.Booking{}}, clk, time.Hour)

	d, _ := svc.New(ctx)
	if _, err := svc.SaveStep(ctx, d.ID, StepTrip, trip); err != nil {
		t.Fatalf("trip: %v", err)
	}
	_, err := svc.SaveStep(ctx, d.ID, StepSchedule, schedule)
	var na booking.NotAllowedError
	if !errors.As(err, &na) || na.Reason != availability.ReasonSoldOut {
		t.Fatalf("expected sold_out, got %v", err)
	}
	if store[d.ID].Step != StepSchedule || store[d.ID].Data.Schedule != nil {
		t.Fatalf("a refused schedule must not be stored")
	}

	svc = NewService(store, fakeQuoter{err: pricing.ErrPriceUnavailable}, &fakeBooker{byKey: map[string]booking.Booking{}}, clk, time.Hour)
	if _, err := svc.SaveStep(ctx, d.ID, StepSchedule, schedule); !errors.Is(err, pricing.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}
