package availability

import (
	"testing"
	"time"

	"taxibooking/internal/settings"
	"taxibooking/internal/testutil"
)

func TestStatusFor(t *testing.T) {
	s := settings.Defaults() // fleet 10, threshold 5

	cases := []struct {
		name   string
		day    Day
		status Status
		free   int
	}{
		{"empty day", Day{}, StatusAvailable, 10},
		{"exactly threshold left", Day{CarsBooked: 5}, StatusAvailable, 5},
		{"below threshold", Day{CarsBooked: 6}, StatusLimited, 4},
		{"last car", Day{CarsBooked: 9}, StatusLimited, 1},
		{"full", Day{CarsBooked: 10}, StatusSoldOut, 0},
		{"overbooked clamps to zero", Day{CarsBooked: 14}, StatusSoldOut, 0},
		{"blocked wins over free cars", Day{IsBlocked: true}, StatusBlocked, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(tc.day, s); got != tc.status {
				t.Fatalf("expected %s, got %s", tc.status, got)
			}
			if got := CarsAvailable(s.FleetSize, tc.day.CarsBooked); got != tc.free {
				t.Fatalf("expected %d free, got %d", tc.free, got)
			}
		})
	}
}

func TestStatusFor_ZeroFleet(t *testing.T) {
	s := settings.Defaults()
	s.FleetSize = 0
	if got := StatusFor(Day{}, s); got != StatusSoldOut {
		t.Fatalf("expected sold_out with no fleet, got %s", got)
	}
}

func TestBookingAllowed(t *testing.T) {
	s := settings.Defaults()
	s.MaxAdvanceDays = 30
	ist, _ := time.LoadLocation("Asia/Kolkata")
	// 20:00 UTC on Jan 9 is already Jan 10 in IST.
	w := WindowAt(time.Date(2025, 1, 9, 20, 0, 0, 0, time.UTC), ist, s)
	if w.Earliest.String() != "2025-01-10" || w.Latest.String() != "2025-02-09" {
		t.Fatalf("unexpected window %s..%s", w.Earliest, w.Latest)
	}

	cases := []struct {
		name string
		day  Day
		want string
	}{
		{"today", Day{Date: testutil.Date("2025-01-10")}, ""},
		{"yesterday", Day{Date: testutil.Date("2025-01-09")}, ReasonPast},
		{"last bookable day", Day{Date: testutil.Date("2025-02-09")}, ""},
		{"beyond advance window", Day{Date: testutil.Date("2025-02-10")}, ReasonTooFarAhead},
		{"blocked", Day{Date: testutil.Date("2025-01-15"), IsBlocked: true}, ReasonBlocked},
		{"sold out", Day{Date: testutil.Date("2025-01-15"), CarsBooked: 10}, ReasonSoldOut},
		{"limited still bookable", Day{Date: testutil.Date("2025-01-15"), CarsBooked: 9}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BookingAllowed(tc.day, w, s); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	s.BookingsEnabled = false
	if got := BookingAllowed(Day{Date: testutil.Date("2025-01-15")}, w, s); got != ReasonBookingsDisabled {
		t.Fatalf("expected bookings_disabled, got %q", got)
	}
}

func TestWindowAt_LeadHoursCrossMidnight(t *testing.T) {
	s := settings.Defaults()
	s.MinLeadHours = 6
	w := WindowAt(time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC), time.UTC, s)
	if w.Earliest.String() != "2025-03-02" {
		t.Fatalf("expected earliest 2025-03-02, got %s", w.Earliest)
	}
	w = WindowAt(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), time.UTC, s)
	if w.Earliest.String() != "2025-03-01" {
		t.Fatalf("expected earliest 2025-03-01, got %s", w.Earliest)
	}
}

func TestPatch_Apply(t *testing.T) {
	base := Day{Date: testutil.Date("2025-05-01"), CarsBooked: 3, Note: "wedding"}
	three, blocked := 3, true

	if _, changed := (Patch{CarsBooked: &three}).Apply(base); changed {
		t.Fatalf("same value should not count as a change")
	}
	got, changed := (Patch{IsBlocked: &blocked}).Apply(base)
	if !changed || !got.IsBlocked || got.CarsBooked != 3 || got.Note != "wedding" {
		t.Fatalf("unexpected patch result %+v changed=%v", got, changed)
	}
}

func TestParseRange(t *testing.T) {
	today := testutil.Date("2025-06-01")

	from, to, details := ParseRange("", "", today)
	if details != nil || from != today || to.String() != "2025-06-30" {
		t.Fatalf("unexpected default range %s..%s %v", from, to, details)
	}
	if _, _, details := ParseRange("2025-06-01", "2025-08-31", today); details != nil {
		t.Fatalf("92 days should be accepted, got %v", details)
	}
	if _, _, details := ParseRange("2025-06-01", "2025-09-01", today); details["to"] == "" {
		t.Fatalf("93 days should be rejected")
	}
	if _, _, details := ParseRange("2025-06-10", "2025-06-01", today); details["to"] == "" {
		t.Fatalf("inverted range should be rejected")
	}
	if _, _, details := ParseRange("06/10/2025", "", today); details["from"] == "" {
		t.Fatalf("bad from should be rejected")
	}
}
