package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taxibooking/internal/booking"
	"taxibooking/internal/civil"
	"taxibooking/internal/clock"
	"taxibooking/internal/pricing"
)

const DefaultTTL = 24 * time.Hour

type Store interface {
	Insert(ctx context.Context, d Draft) error
	Get(ctx context.Context, id string) (Draft, error)
	Update(ctx context.Context, d Draft) error
}

type Quoter interface {
	Quote(ctx context.Context, t pricing.Trip) (pricing.Quote, error)
}

type Booker interface {
	Create(ctx context.Context, in booking.CreateInput, key string) (booking.Booking, bool, error)
}

type Service struct {
	store  Store
	quoter Quoter
	booker Booker
	clock  clock.Clock
	ttl    time.Duration
}

func NewService(store Store, quoter Quoter, booker Booker, c clock.Clock, ttl time.Duration) *Service {
	if c == nil {
		c = clock.NewSystem()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, quoter: quoter, booker: booker, clock: c, ttl: ttl}
}

func (s *Service) New(ctx context.Context) (Draft, error) {
	now := s.clock.Now()
	d := Draft{
		ID:        uuid.NewString(),
		Step:      StepTrip,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Get returns the draft. Expired drafts that were never submitted are gone for the customer.
func (s *Service) Get(ctx context.Context, id string) (Draft, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if d.SubmittedBookingID == nil && d.Expired(s.clock.Now()) {
		return Draft{}, ErrDraftExpired
	}
	return d, nil
}

// SaveStep stores one step. Saving the schedule prices the trip and checks the date can be booked.
func (s *Service) SaveStep(ctx context.Context, id string, step Step, payload any) (Draft, error) {
	d, err := s.open(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if err := d.Save(step, payload); err != nil {
		return Draft{}, err
	}

	if step == StepSchedule {
		if d.Data.Trip == nil {
			return Draft{}, ErrStepIncomplete
		}
		date, err := civil.Parse(d.Data.Schedule.TravelDate)
		if err != nil {
			return Draft{}, err
		}
		q, err := s.quoter.Quote(ctx, pricing.Trip{
			PackageID:   d.Data.Trip.PackageID,
			RouteID:     d.Data.Trip.RouteID,
			VehicleType: d.Data.Trip.VehicleType,
			Date:        date,
		})
		if err != nil {
			return Draft{}, err
		}
		if !q.BookingAllowed {
			return Draft{}, booking.NotAllowedError{Reason: q.Availability.Reason}
		}
		d.Data.Quote = &QuoteData{Price: q.Price, Currency: q.Currency, Season: q.Season}
	}
	return s.touch(ctx, d)
}

func (s *Service) Back(ctx context.Context, id string) (Draft, error) {
	d, err := s.open(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	d.Back()
	return s.touch(ctx, d)
}

// Submit turns a reviewed draft into a booking. Submitting again returns the same booking.
func (s *Service) Submit(ctx context.Context, id string) (booking.Booking, Draft, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return booking.Booking{}, Draft{}, err
	}
	if d.SubmittedBookingID == nil && d.Expired(s.clock.Now()) {
		return booking.Booking{}, Draft{}, ErrDraftExpired
	}
	in, err := d.BookingInput()
	if err != nil {
		return booking.Booking{}, Draft{}, err
	}
	b, _, err := s.booker.Create(ctx, in, d.IdempotencyKey())
	if err != nil {
		return booking.Booking{}, Draft{}, err
	}
	if d.SubmittedBookingID == nil {
		d.SubmittedBookingID = &b.ID
		d.UpdatedAt = s.clock.Now()
		if err := s.store.Update(ctx, d); err != nil {
			return booking.Booking{}, Draft{}, err
		}
	}
	return b, d, nil
}

func (s *Service) open(ctx context.Context, id string) (Draft, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if err := d.checkOpen(s.clock.Now()); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// touch persists d and slides its expiry forward.
func (s *Service) touch(ctx context.Context, d Draft) (Draft, error) {
	now := s.clock.Now()
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	if err := s.store.Update(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}
