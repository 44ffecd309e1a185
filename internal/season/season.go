package season

import (
	"sort"
	"time"

	"taxibooking/internal/civil"
)

type Season struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate civil.Date `json:"startDate"`
	EndDate   civil.Date `json:"endDate"`
	// Recurring seasons repeat every year on the same month/day range and may wrap the new year.
	Recurring bool      `json:"recurring"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contains reports whether d falls in the season, both ends inclusive.
func (s Season) Contains(d civil.Date) bool {
	if !s.Recurring {
		return !d.Before(s.StartDate.Time) && !d.After(s.EndDate.Time)
	}
	x := monthDay(d)
	start, end := monthDay(s.StartDate), monthDay(s.EndDate)
	if start <= end {
		return x >= start && x <= end
	}
	return x >= start || x <= end
}

// Days is the length of the season in days, used to prefer the narrower of two overlapping seasons.
func (s Season) Days() int {
	if !s.Recurring {
		return s.StartDate.DaysUntil(s.EndDate) + 1
	}
	// Measure on a fixed non-leap year so wrap-around seasons compare fairly.
	start := time.Date(2001, s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(2001, s.EndDate.Month(), s.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours()/24) + 1
	if days <= 0 {
		days += 365
	}
	return days
}

func monthDay(d civil.Date) int {
	return int(d.Month())*100 + d.Day()
}

// Resolve picks the season for d among active seasons.
// Overlaps resolve by higher priority, then the narrower range, then the lower id.
func Resolve(d civil.Date, seasons []Season) *Season {
	var matches []Season
	for _, s := range seasons {
		if s.IsActive && s.Contains(d) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Days() != b.Days() {
			return a.Days() < b.Days()
		}
		return a.ID < b.ID
	})
	out := matches[0]
	return &out
}
