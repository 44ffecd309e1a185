package booking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"taxibooking/internal/availability"
	"taxibooking/internal/civil"
	"taxibooking/internal/clock"
	"taxibooking/internal/pricing"
	"taxibooking/internal/settings"
)

type Store interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*Booking, error)
	Insert(ctx context.Context, b Booking) error
	GetForUpdate(ctx context.Context, id string) (Booking, error)
	UpdateStatus(ctx context.Context, b Booking) error
	InsertEvent(ctx context.Context, e Event) error
}

// Capacity is the per-date car counter. Lock must hold the date's row until the transaction ends.
type Capacity interface {
	Lock(ctx context.Context, date civil.Date) (availability.Day, error)
	AdjustBooked(ctx context.Context, date civil.Date, delta int) (availability.Day, error)
}

type Checker interface {
	Evaluate(ctx context.Context, d availability.Day) (availability.AdminEntry, error)
}

type Pricer interface {
	Price(ctx context.Context, t pricing.Trip) (pricing.Price, error)
}

type Auditor interface {
	Record(ctx context.Context, action, entity, entityID, actor string, metadata any) error
}

// Notifier is told about bookings after their transaction commits.
type Notifier interface {
	BookingCreated(ctx context.Context, b Booking)
	BookingStatusChanged(ctx context.Context, b Booking, from Status)
}

// Invalidator drops cached public responses once a booking changes a date's car count.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string)
}

// TxFunc runs fn inside one database transaction carried by ctx.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	tx       TxFunc
	store    Store
	capacity Capacity
	checker  Checker
	pricer   Pricer
	settings settings.Provider
	audit    Auditor
	notifier Notifier
	cache    Invalidator
	clock    clock.Clock
}

type Deps struct {
	Tx       TxFunc
	Store    Store
	Capacity Capacity
	Checker  Checker
	Pricer   Pricer
	Settings settings.Provider
	Audit    Auditor
	Notifier Notifier
	Cache    Invalidator
	Clock    clock.Clock
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	return &Service{
		tx:       d.Tx,
		store:    d.Store,
		capacity: d.Capacity,
		checker:  d.Checker,
		pricer:   d.Pricer,
		settings: d.Settings,
		audit:    d.Audit,
		notifier: d.Notifier,
		cache:    d.Cache,
		clock:    d.Clock,
	}
}

// Create books one car for the travel date. The same key with the same payload returns the
// original booking with created=false; with a different payload it fails with ErrIdempotencyConflict.
func (s *Service) Create(ctx context.Context, in CreateInput, key string) (Booking, bool, error) {
	if key == "" {
		return Booking{}, false, ErrIdempotencyKeyRequired
	}
	in = in.Normalize()
	date, err := civil.Parse(in.TravelDate)
	if err != nil {
		return Booking{}, false, fmt.Errorf("travel date: %w", err)
	}
	hash := RequestHash(in)

	var (
		result  Booking
		created bool
	)
	err = s.tx(ctx, func(ctx context.Context) error {
		// The date lock serializes creators for the same date, so the key lookup sees their commits.
		day, err := s.capacity.Lock(ctx, date)
		if err != nil {
			return fmt.Errorf("lock availability: %w", err)
		}

		existing, err := s.store.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash != hash {
				return ErrIdempotencyConflict
			}
			result = *existing
			return nil
		}

		entry, err := s.checker.Evaluate(ctx, day)
		if err != nil {
			return err
		}
		if !entry.BookingAllowed {
			return NotAllowedError{Reason: entry.Reason}
		}

		price, err := s.pricer.Price(ctx, pricing.Trip{
			PackageID:   in.PackageID,
			RouteID:     in.RouteID,
			VehicleType: in.VehicleType,
			Date:        date,
		})
		if err != nil {
			return err
		}
		cfg, err := s.settings.Get(ctx)
		if err != nil {
			return err
		}

		if _, err := s.capacity.AdjustBooked(ctx, date, 1); err != nil {
			return fmt.Errorf("reserve car: %w", err)
		}

		now := s.clock.Now()
		b := Booking{
			ID:             uuid.NewString(),
			Reference:      NewReference(date),
			PackageID:      in.PackageID,
			RouteID:        in.RouteID,
			VehicleType:    in.VehicleType,
			TravelDate:     date,
			PickupTime:     in.PickupTime,
			PickupLocation: in.PickupLocation,
			DropLocation:   in.DropLocation,
			Passengers:     in.Passengers,
			CustomerName:   in.CustomerName,
			CustomerPhone:  in.CustomerPhone,
			CustomerEmail:  in.CustomerEmail,
			Notes:          in.Notes,
			SeasonName:     price.Season,
			Price:          price.Amount,
			Currency:       cfg.Currency,
			Status:         StatusPending,
			IdempotencyKey: key,
			RequestHash:    hash,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.store.Insert(ctx, b); err != nil {
			return err
		}
		ev := newEvent(b.ID, EventCreated, "Booking requested for "+date.String(), "customer", now, map[string]any{
			"reference": b.Reference,
			"price":     b.Price.StringFixed(pricing.CurrencyScale),
			"season":    b.SeasonName,
		})
		if err := s.store.InsertEvent(ctx, ev); err != nil {
			return err
		}
		result, created = b, true
		return nil
	})

	// A concurrent request with the same key for another date won the insert.
	if errors.Is(err, ErrDuplicateKey) {
		existing, ferr := s.store.FindByIdempotencyKey(ctx, key)
		if ferr != nil {
			return Booking{}, false, ferr
		}
		if existing == nil || existing.RequestHash != hash {
			return Booking{}, false, ErrIdempotencyConflict
		}
		return *existing, false, nil
	}
	if err != nil {
		return Booking{}, false, err
	}

	if created {
		log.Printf("booking created id=%s reference=%s date=%s", result.ID, result.Reference, result.TravelDate)
		s.availabilityChanged(ctx)
		if s.notifier != nil {
			s.notifier.BookingCreated(ctx, result)
		}
	}
	return result, created, nil
}

// UpdateStatus moves a booking along its lifecycle. Cancelling gives the car back to the date.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, actor, note string) (Booking, error) {
	var (
		result   Booking
		from     Status
		released bool
	)
	err := s.tx(ctx, func(ctx context.Context) error {
		b, err := s.store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = b.Status
		if !CanTransition(b.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
		}

		if to == StatusCancelled && from.HoldsCar() {
			if _, err := s.capacity.Lock(ctx, b.TravelDate); err != nil {
				return fmt.Errorf("lock availability: %w", err)
			}
			if _, err := s.capacity.AdjustBooked(ctx, b.TravelDate, -1); err != nil {
				return fmt.Errorf("release car: %w", err)
			}
			released = true
		}

		now := s.clock.Now()
		b.Status = to
		b.UpdatedAt = now
		if err := s.store.UpdateStatus(ctx, b); err != nil {
			return err
		}

		data := map[string]any{"from": from, "to": to}
		if note != "" {
			data["note"] = note
		}
		summary := fmt.Sprintf("Status changed from %s to %s", from, to)
		if err := s.store.InsertEvent(ctx, newEvent(b.ID, EventStatusChanged, summary, actor, now, data)); err != nil {
			return err
		}
		if s.audit != nil {
			if err := s.audit.Record(ctx, "BOOKING_STATUS_CHANGED", "booking", b.ID, actor, data); err != nil {
				return err
			}
		}
		result = b
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	if released {
		s.availabilityChanged(ctx)
	}
	if s.notifier != nil {
		s.notifier.BookingStatusChanged(ctx, result, from)
	}
	return result, nil
}

func (s *Service) availabilityChanged(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, "availability")
	}
}
