package season

import (
	"testing"

	"taxibooking/internal/testutil"
)

func TestResolve(t *testing.T) {
	peak := Season{ID: "a", Name: "Season", StartDate: testutil.Date("2025-10-01"), EndDate: testutil.Date("2026-03-31"), IsActive: true}
	offPeak := Season{ID: "b", Name: "Off-Season", StartDate: testutil.Date("2025-04-01"), EndDate: testutil.Date("2025-09-30"), IsActive: true}
	diwali := Season{ID: "c", Name: "Festival", StartDate: testutil.Date("2025-10-18"), EndDate: testutil.Date("2025-10-24"), IsActive: true}
	inactive := Season{ID: "d", Name: "Old", StartDate: testutil.Date("2025-01-01"), EndDate: testutil.Date("2025-12-31"), IsActive: false}
	all := []Season{peak, offPeak, diwali, inactive}

	cases := []struct {
		name string
		date string
		want string
	}{
		{"start boundary inclusive", "2025-04-01", "Off-Season"},
		{"end boundary inclusive", "2025-09-30", "Off-Season"},
		{"next day switches", "2025-10-01", "Season"},
		{"narrower overlapping season wins", "2025-10-20", "Festival"},
		{"crosses year end", "2026-01-15", "Season"},
		{"no match ignores inactive", "2025-03-15", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(testutil.Date(tc.date), all)
			name := ""
			if got != nil {
				name = got.Name
			}
			if name != tc.want {
				t.Fatalf("date %s: expected %q, got %q", tc.date, tc.want, name)
			}
		})
	}
}

func TestResolve_PriorityBeatsNarrowness(t *testing.T) {
	wide := Season{ID: "w", Name: "Wide", StartDate: testutil.Date("2025-01-01"), EndDate: testutil.Date("2025-12-31"), Priority: 10, IsActive: true}
	narrow := Season{ID: "n", Name: "Narrow", StartDate: testutil.Date("2025-06-01"), EndDate: testutil.Date("2025-06-10"), IsActive: true}
	got := Resolve(testutil.Date("2025-06-05"), []Season{narrow, wide})
	if got == nil || got.Name != "Wide" {
		t.Fatalf("expected Wide, got %+v", got)
	}
}

func TestResolve_TieBreaksOnID(t *testing.T) {
	a := Season{ID: "2", Name: "Second", StartDate: testutil.Date("2025-06-01"), EndDate: testutil.Date("2025-06-10"), IsActive: true}
	b := Season{ID: "1", Name: "First", StartDate: testutil.Date("2025-06-01"), EndDate: testutil.Date("2025-06-10"), IsActive: true}
	if got := Resolve(testutil.Date("2025-06-05"), []Season{a, b}); got.Name != "First" {
		t.Fatalf("expected First, got %s", got.Name)
	}
}

func TestRecurringSeason(t *testing.T) {
	winter := Season{Name: "Winter", StartDate: testutil.Date("2000-11-15"), EndDate: testutil.Date("2000-02-15"), Recurring: true, IsActive: true}
	for _, d := range []string{"2031-11-15", "2031-12-31", "2032-01-01", "2032-02-15"} {
		if !winter.Contains(testutil.Date(d)) {
			t.Fatalf("expected %s inside recurring winter", d)
		}
	}
	for _, d := range []string{"2031-11-14", "2032-02-16", "2032-07-01"} {
		if winter.Contains(testutil.Date(d)) {
			t.Fatalf("expected %s outside recurring winter", d)
		}
	}
	if got := winter.Days(); got != 93 {
		t.Fatalf("expected 93 days, got %d", got)
	}

	summer := Season{Name: "Summer", StartDate: testutil.Date("2000-04-01"), EndDate: testutil.Date("2000-06-30"), Recurring: true, IsActive: true}
	if !summer.Contains(testutil.Date("2040-05-05")) || summer.Contains(testutil.Date("2040-07-01")) {
		t.Fatalf("unexpected summer containment")
	}
}

func TestInput_Season(t *testing.T) {
	in := Input{Name: "Peak", StartDate: "2025-10-01", EndDate: "2025-09-01"}
	if _, details := in.Season(); details["endDate"] == "" {
		t.Fatalf("expected endDate error, got %v", details)
	}

	in.Recurring = true
	s, details := in.Season()
	if details != nil {
		t.Fatalf("recurring seasons may wrap, got %v", details)
	}
	if !s.IsActive {
		t.Fatalf("expected new seasons to default active")
	}

	off := false
	in.IsActive = &off
	if s, _ := in.Season(); s.IsActive {
		t.Fatalf("expected explicit isActive=false to stick")
	}
}
