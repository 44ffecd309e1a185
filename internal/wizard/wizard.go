package wizard

import (
	"errors"
	"fmt"
	"time"

	"taxibooking/internal/booking"
)

// Step is one page of the booking wizard. Steps run in order: trip, schedule, traveller, review.
type Step string

const (
	StepTrip      Step = "trip"
	StepSchedule  Step = "schedule"
	StepTraveller Step = "traveller"
	StepReview    Step = "review"
)

var steps = []Step{StepTrip, StepSchedule, StepTraveller, StepReview}

func ParseStep(s string) (Step, error) {
	for _, st := range steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
}

func (s Step) index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; review is terminal.
func (s Step) Next() Step {
	i := s.index()
	if i < 0 || i+1 >= len(steps) {
		return StepReview
	}
	return steps[i+1]
}

// Prev returns the previous step, never going before trip.
func (s Step) Prev() Step {
	i := s.index()
	if i <= 0 {
		return StepTrip
	}
	return steps[i-1]
}

var (
	ErrNotFound       = errors.New("booking draft not found")
	ErrUnknownStep    = errors.New("unknown wizard step")
	ErrStepIncomplete = errors.New("an earlier step must be completed first")
	ErrDraftExpired   = errors.New("booking draft has expired")
	ErrDraftSubmitted = errors.New("booking draft was already submitted")
)

type TripData struct {
	PackageID   string `json:"packageId" validate:"required_without=RouteID,excluded_with=RouteID,omitempty,uuid"`
	RouteID     string `json:"routeId" validate:"omitempty,uuid"`
	VehicleType string `json:"vehicleType" validate:"required,slug"`
	Passengers  int    `json:"passengers" validate:"required,min=1,max=60"`
}

type ScheduleData struct {
	TravelDate     string `json:"travelDate" validate:"required,isodate"`
	PickupTime     string `json:"pickupTime" validate:"omitempty,hhmm"`
	PickupLocation string `json:"pickupLocation" validate:"required,max=300"`
	DropLocation   string `json:"dropLocation" validate:"max=300"`
}

type TravellerData struct {
	CustomerName  string `json:"customerName" validate:"required,max=120"`
	CustomerPhone string `json:"customerPhone" validate:"required,min=7,max=20"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email,max=200"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// QuoteData is derived from trip and schedule; it is cleared whenever either changes.
type QuoteData struct {
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Season   string `json:"season,omitempty"`
}

type Data struct {
	Trip      *TripData      `json:"trip,omitempty"`
	Schedule  *ScheduleData  `json:"schedule,omitempty"`
	Traveller *TravellerData `json:"traveller,omitempty"`
	Quote     *QuoteData     `json:"quote,omitempty"`
}

type Draft struct {
	ID                 string    `json:"id"`
	Step               Step      `json:"step"`
	Data               Data      `json:"data"`
	SubmittedBookingID *string   `json:"submittedBookingId,omitempty"`
	ExpiresAt          time.Time `json:"expiresAt"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (d Draft) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// checkOpen rejects drafts that can no longer change.
func (d Draft) checkOpen(now time.Time) error {
	if d.SubmittedBookingID != nil {
		return ErrDraftSubmitted
	}
	if d.Expired(now) {
		return ErrDraftExpired
	}
	return nil
}

// Save stores payload for step and moves the draft to the step after it.
// A step can be saved once the draft has reached it; review has no payload.
func (d *Draft) Save(step Step, payload any) error {
	if step == StepReview || step.index() < 0 {
		return fmt.Errorf("%w: %q cannot be saved", ErrUnknownStep, step)
	}
	if step.index() > d.Step.index() {
		return ErrStepIncomplete
	}
	switch p := payload.(type) {
	case TripData:
		if d.Data.Trip == nil || *d.Data.Trip != p {
			d.Data.Quote = nil
		}
		d.Data.Trip = &p
	case ScheduleData:
		if d.Data.Schedule == nil || *d.Data.Schedule != p {
			d.Data.Quote = nil
		}
		d.Data.Schedule = &p
	case TravellerData:
		d.Data.Traveller = &p
	default:
		return fmt.Errorf("unexpected payload %T for step %s", payload, step)
	}
	d.Step = step.Next()
	return nil
}

func (d *Draft) Back() {
	d.Step = d.Step.Prev()
}

// BookingInput assembles the booking payload. Every step before review must be complete.
func (d Draft) BookingInput() (booking.CreateInput, error) {
	if d.Step != StepReview || d.Data.Trip == nil || d.Data.Schedule == nil || d.Data.Traveller == nil {
		return booking.CreateInput{}, ErrStepIncomplete
	}
	t, s, c := d.Data.Trip, d.Data.Schedule, d.Data.Traveller
	return booking.CreateInput{
		PackageID:      t.PackageID,
		RouteID:        t.RouteID,
		VehicleType:    t.VehicleType,
		Passengers:     t.Passengers,
		TravelDate:     s.TravelDate,
		PickupTime:     s.PickupTime,
		PickupLocation: s.PickupLocation,
		DropLocation:   s.DropLocation,
		CustomerName:   c.CustomerName,
		CustomerPhone:  c.CustomerPhone,
		CustomerEmail:  c.CustomerEmail,
		Notes:          c.Notes,
	}, nil
}

// IdempotencyKey ties a draft to at most one booking.
func (d Draft) IdempotencyKey() string {
	return "draft:" + d.ID
}
