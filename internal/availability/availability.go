package availability

import (
	"time"

	"taxibooking/internal/civil"
	"taxibooking/internal/settings"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusLimited   Status = "limited"
	StatusSoldOut   Status = "sold_out"
	StatusBlocked   Status = "blocked"
)

// Reasons a date cannot be booked.
const (
	ReasonBookingsDisabled = "bookings_disabled"
	ReasonPast             = "past_date"
	ReasonTooFarAhead      = "too_far_ahead"
	ReasonBlocked          = "blocked"
	ReasonSoldOut          = "sold_out"
)

// MaxWindowDays bounds a single availability range query.
const MaxWindowDays = 92

const DefaultWindowDays = 30

// Day is one row of availability_days. A date without a row is a zero Day for that date.
type Day struct {
	Date       civil.Date `json:"date"`
	CarsBooked int        `json:"carsBooked"`
	IsBlocked  bool       `json:"isBlocked"`
	Note       string     `json:"note"`
	Source     string     `json:"source"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func CarsAvailable(fleetSize, carsBooked int) int {
	return max(fleetSize-carsBooked, 0)
}

func StatusFor(d Day, s settings.Settings) Status {
	if d.IsBlocked {
		return StatusBlocked
	}
	threshold := s.LimitedThreshold
	if threshold < 1 {
		threshold = 1
	}
	free := CarsAvailable(s.FleetSize, d.CarsBooked)
	switch {
	case free >= threshold:
		return StatusAvailable
	case free >= 1:
		return StatusLimited
	default:
		return StatusSoldOut
	}
}

// Window is the range of bookable travel dates at a given moment.
type Window struct {
	Earliest civil.Date
	Latest   civil.Date
}

// WindowAt computes the bookable range from now in the business timezone.
// MinLeadHours pushes the earliest date forward when the lead crosses midnight.
func WindowAt(now time.Time, loc *time.Location, s settings.Settings) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := civil.DateOf(local)
	earliest := civil.DateOf(local.Add(time.Duration(s.MinLeadHours) * time.Hour))
	if earliest.Before(today.Time) {
		earliest = today
	}
	return Window{Earliest: earliest, Latest: today.AddDays(s.MaxAdvanceDays)}
}

// BookingAllowed returns "" when a car can be booked for d, otherwise the reason it cannot.
func BookingAllowed(d Day, w Window, s settings.Settings) string {
	switch {
	case !s.BookingsEnabled:
		return ReasonBookingsDisabled
	case d.Date.Before(w.Earliest.Time):
		return ReasonPast
	case d.Date.After(w.Latest.Time):
		return ReasonTooFarAhead
	}
	switch StatusFor(d, s) {
	case StatusBlocked:
		return ReasonBlocked
	case StatusSoldOut:
		return ReasonSoldOut
	}
	return ""
}

// Entry is the public view of one date.
type Entry struct {
	Date           civil.Date `json:"date"`
	CarsBooked     int        `json:"carsBooked"`
	CarsAvailable  int        `json:"carsAvailable"`
	Status         Status     `json:"status"`
	Season         string     `json:"season,omitempty"`
	BookingAllowed bool       `json:"bookingAllowed"`
	Reason         string     `json:"reason,omitempty"`
}

// AdminEntry adds the stored fields the dashboard edits.
type AdminEntry struct {
	Entry
	IsBlocked bool       `json:"isBlocked"`
	Note      string     `json:"note"`
	Source    string     `json:"source"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func Evaluate(d Day, w Window, s settings.Settings, seasonName string) Entry {
	reason := BookingAllowed(d, w, s)
	return Entry{
		Date:           d.Date,
		CarsBooked:     d.CarsBooked,
		CarsAvailable:  CarsAvailable(s.FleetSize, d.CarsBooked),
		Status:         StatusFor(d, s),
		Season:         seasonName,
		BookingAllowed: reason == "",
		Reason:         reason,
	}
}

// Patch is a partial change to one date, used by admin edits and calendar sync.
type Patch struct {
	Date       string  `json:"date" validate:"omitempty,isodate"`
	CarsBooked *int    `json:"carsBooked" validate:"omitnil,min=0"`
	IsBlocked  *bool   `json:"isBlocked"`
	Note       *string `json:"note" validate:"omitnil,max=500"`
}

// Apply returns d with p applied and whether anything changed.
func (p Patch) Apply(d Day) (Day, bool) {
	out := d
	if p.CarsBooked != nil {
		out.CarsBooked = *p.CarsBooked
	}
	if p.IsBlocked != nil {
		out.IsBlocked = *p.IsBlocked
	}
	if p.Note != nil {
		out.Note = *p.Note
	}
	changed := out.CarsBooked != d.CarsBooked || out.IsBlocked != d.IsBlocked || out.Note != d.Note
	return out, changed
}

type SyncResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// ParseRange reads a from/to window. Empty from means today; empty to means DefaultWindowDays from from.
func ParseRange(fromRaw, toRaw string, today civil.Date) (civil.Date, civil.Date, map[string]string) {
	from, to := today, civil.Date{}
	if fromRaw != "" {
		d, err := civil.Parse(fromRaw)
		if err != nil {
			return civil.Date{}, civil.Date{}, map[string]string{"from": "from must be a date formatted YYYY-MM-DD"}
		}
		from = d
	}
	to = from.AddDays(DefaultWindowDays - 1)
	if toRaw != "" {
		d, err := civil.Parse(toRaw)
		if err != nil {
			return civil.Date{}, civil.Date{}, map[string]string{"to": "to must be a date formatted YYYY-MM-DD"}
		}
		to = d
	}
	if to.Before(from.Time) {
		return civil.Date{}, civil.Date{}, map[string]string{"to": "to must not be before from"}
	}
	if from.DaysUntil(to)+1 > MaxWindowDays {
		return civil.Date{}, civil.Date{}, map[string]string{"to": "range must not exceed 92 days"}
	}
	return from, to, nil
}
