package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"taxibooking/internal/availability"
	"taxibooking/internal/civil"
	"taxibooking/internal/clock"
	"taxibooking/internal/pricing"
	"taxibooking/internal/settings"
	"taxibooking/internal/testutil"
)

// memDB is an in-memory store whose transactions are serialized and rolled back on error.
type memDB struct {
	mu       sync.Mutex
	bookings map[string]Booking
	events   []Event
	days     map[string]availability.Day
	audits   int

	// committedElsewhere holds bookings a concurrent request stored; it survives rollbacks.
	committedElsewhere map[string]Booking
	onInsert           func(b Booking) error
}

func newMemDB() *memDB {
	return &memDB{
		bookings:           map[string]Booking{},
		days:               map[string]availability.Day{},
		committedElsewhere: map[string]Booking{},
	}
}

func (m *memDB) tx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bookings := make(map[string]Booking, len(m.bookings))
	for k, v := range m.bookings {
		bookings[k] = v
	}
	days := make(map[string]availability.Day, len(m.days))
	for k, v := range m.days {
		days[k] = v
	}
	events, audits := len(m.events), m.audits

	if err := fn(ctx); err != nil {
		m.bookings, m.days, m.events, m.audits = bookings, days, m.events[:events], audits
		return err
	}
	return nil
}

func (m *memDB) FindByIdempotencyKey(_ context.Context, key string) (*Booking, error) {
	for _, src := range []map[string]Booking{m.bookings, m.committedElsewhere} {
		for _, b := range src {
			if b.IdempotencyKey == key {
				out := b
				return &out, nil
			}
		}
	}
	return nil, nil
}

func (m *memDB) Insert(_ context.Context, b Booking) error {
	if m.onInsert != nil {
		if err := m.onInsert(b); err != nil {
			return err
		}
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *memDB) GetForUpdate(_ context.Context, id string) (Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (m *memDB) UpdateStatus(_ context.Context, b Booking) error {
	m.bookings[b.ID] = b
	return nil
}

func (m *memDB) InsertEvent(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memDB) Lock(_ context.Context, date civil.Date) (availability.Day, error) {
	d, ok := m.days[date.String()]
	if !ok {
		d = availability.Day{Date: date}
		m.days[date.String()] = d
	}
	return d, nil
}

func (m *memDB) AdjustBooked(_ context.Context, date civil.Date, delta int) (availability.Day, error) {
	d := m.days[date.String()]
	d.Date = date
	d.CarsBooked = max(d.CarsBooked+delta, 0)
	m.days[date.String()] = d
	return d, nil
}

func (m *memDB) Record(context.Context, string, string, string, string, any) error {
	m.audits++
	return nil
}

func (m *memDB) carsBooked(date string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days[date].CarsBooked
}

type fakeChecker struct {
	settings settings.Settings
	window   availability.Window
}

func (f fakeChecker) Evaluate(_ context.Context, d availability.Day) (availability.AdminEntry, error) {
	return availability.AdminEntry{Entry: availability.Evaluate(d, f.window, f.settings, "")}, nil
}

type fakePricer struct{}

func (fakePricer) Price(_ context.Context, t pricing.Trip) (pricing.Price, error) {
	if t.VehicleType == "tempo" {
		return pricing.Price{}, pricing.ErrPriceUnavailable
	}
	return pricing.Price{Amount: decimal.RequireFromString("2500"), Season: "Peak"}, nil
}

type fixedSettings struct{ s settings.Settings }

func (f fixedSettings) Get(context.Context) (settings.Settings, error) { return f.s, nil }

type recordingNotifier struct {
	mu      sync.Mutex
	created []string
	changed []string
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, b.ID)
}

func (n *recordingNotifier) BookingStatusChanged(_ context.Context, b Booking, from Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(from)+"->"+string(b.Status))
}

var now = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

func newTestService(fleet int) (*Service, *memDB, *recordingNotifier) {
	cfg := settings.Defaults()
	cfg.FleetSize = fleet
	cfg.LimitedThreshold = 1
	mem := newMemDB()
	n := &recordingNotifier{}
	svc := NewService(Deps{
		Tx:       mem.tx,
		Store:    mem,
		Capacity: mem,
		Checker:  fakeChecker{settings: cfg, window: availability.WindowAt(now, time.UTC, cfg)},
		Pricer:   fakePricer{},
		Settings: fixedSettings{cfg},
		Audit:    mem,
		Notifier: n,
		Clock:    clock.NewFixed(now),
	})
	return svc, mem, n
}

func validInput() CreateInput {
	return CreateInput{
		PackageID:      "1f0e6a9c-2b7d-4d55-8a3e-6c1b2f3d4e5f",
		VehicleType:    "sedan",
		TravelDate:     "2025-06-10",
		PickupTime:     "05:30",
		PickupLocation: "Madurai Junction",
		Passengers:     3,
		CustomerName:   "Priya",
		CustomerPhone:  "+91 98400 12345",
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("books a car and records the event", func(t *testing.T) {
		svc, mem, n := newTestService(5)
		b, created, err := svc.Create(ctx, validInput(), "key-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !created || b.Status != StatusPending {
			t.Fatalf("expected new pending booking, got created=%v status=%s", created, b.Status)
		}
		if !strings.HasPrefix(b.Reference, "TB250610-") {
			t.Fatalf("unexpected reference %s", b.Reference)
		}
		if b.Currency != "INR" || !b.Price.Equal(decimal.NewFromInt(2500)) || b.SeasonName != "Peak" {
			t.Fatalf("unexpected price snapshot %s %s %s", b.Price, b.Currency, b.SeasonName)
		}
		if got := mem.carsBooked("2025-06-10"); got != 1 {
			t.Fatalf("expected 1 car booked, got %d", got)
		}
		if len(mem.events) != 1 || mem.events[0].EventType != EventCreated {
			t.Fatalf("expected one created event, got %+v", mem.events)
		}
		if len(n.created) != 1 {
			t.Fatalf("expected one notification, got %d", len(n.created))
		}
	})

	t.Run("replay with same key returns the original booking", func(t *testing.T) {
		svc, mem, n := newTestService(5)
		first, _, err := svc.Create(ctx, validInput(), "key-1")
		if err != nil {
			t.Fatalf("first create: %v", err)
		}
		in := validInput()
		in.CustomerName = "  Priya " // whitespace-only difference
		again, created, err := svc.Create(ctx, in, "key-1")
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if created || again.ID != first.ID {
			t.Fatalf("expected original booking %s, got %s created=%v", first.ID, again.ID, created)
		}
		if got := mem.carsBooked("2025-06-10"); got != 1 {
			t.Fatalf("replay must not book another car, got %d", got)
		}
		if len(n.created) != 1 {
			t.Fatalf("replay must not notify again")
		}
	})

	t.Run("same key with different payload conflicts", func(t *testing.T) {
		svc, _, _ := newTestService(5)
		if _, _, err := svc.Create(ctx, validInput(), "key-1"); err != nil {
			t.Fatalf("first create: %v", err)
		}
		in := validInput()
		in.Passengers = 4
		if _, _, err := svc.Create(ctx, in, "key-1"); !errors.Is(err, ErrIdempotencyConflict) {
			t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
		}
	})

	t.Run("requires a key", func(t *testing.T) {
		svc, _, _ := newTestService(5)
		if _, _, err := svc.Create(ctx, validInput(), ""); !errors.Is(err, ErrIdempotencyKeyRequired) {
			t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
		}
	})

	t.Run("sold out date is refused", func(t *testing.T) {
		svc, mem, _ := newTestService(1)
		if _, _, err := svc.Create(ctx, validInput(), "key-1"); err != nil {
			t.Fatalf("first create: %v", err)
		}
		_, _, err := svc.Create(ctx, validInput(), "key-2")
		var na NotAllowedError
		if !errors.As(err, &na) || na.Reason != availability.ReasonSoldOut {
			t.Fatalf("expected sold_out refusal, got %v", err)
		}
		if !errors.Is(err, ErrBookingNotAllowed) {
			t.Fatalf("expected error to match ErrBookingNotAllowed")
		}
		if got := mem.carsBooked("2025-06-10"); got != 1 {
			t.Fatalf("expected 1 car booked, got %d", got)
		}
	})

	t.Run("blocked and past dates are refused", func(t *testing.T) {
		svc, mem, _ := newTestService(5)
		mem.days["2025-06-10"] = availability.Day{Date: testutil.Date("2025-06-10"), IsBlocked: true}
		_, _, err := svc.Create(ctx, validInput(), "key-1")
		var na NotAllowedError
		if !errors.As(err, &na) || na.Reason != availability.ReasonBlocked {
			t.Fatalf("expected blocked refusal, got %v", err)
		}

		in := validInput()
		in.TravelDate = "2025-05-31"
		_, _, err = svc.Create(ctx, in, "key-2")
		if !errors.As(err, &na) || na.Reason != availability.ReasonPast {
			t.Fatalf("expected past_date refusal, got %v", err)
		}
	})

	t.Run("missing price rolls back", func(t *testing.T) {
		svc, mem, _ := newTestService(5)
		in := validInput()
		in.VehicleType = "tempo"
		if _, _, err := svc.Create(ctx, in, "key-1"); !errors.Is(err, pricing.ErrPriceUnavailable) {
			t.Fatalf("expected ErrPriceUnavailable, got %v", err)
		}
		if got := mem.carsBooked("2025-06-10"); got != 0 {
			t.Fatalf("expected no car booked, got %d", got)
		}
		if len(mem.bookings) != 0 {
			t.Fatalf("expected no booking stored")
		}
	})

	t.Run("key stored by a concurrent request is returned", func(t *testing.T) {
		svc, mem, _ := newTestService(5)
		winner := Booking{ID: "other", IdempotencyKey: "key-1", RequestHash: RequestHash(validInput()), Status: StatusPending}
		mem.onInsert = func(Booking) error {
			mem.committedElsewhere[winner.ID] = winner
			return ErrDuplicateKey
		}
		b, created, err := svc.Create(ctx, validInput(), "key-1")
		if err != nil {
			t.Fatalf("expected winner booking, got %v", err)
		}
		if created || b.ID != "other" {
			t.Fatalf("expected booking other, got %s created=%v", b.ID, created)
		}
		if got := mem.carsBooked("2025-06-10"); got != 0 {
			t.Fatalf("losing request must not keep its car, got %d", got)
		}
	})
}

func TestService_Create_NeverOversells(t *testing.T) {
	const fleet, requests = 3, 12
	svc, mem, _ := newTestService(fleet)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		refusals int
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.CustomerName = "Customer " + string(rune('A'+i))
			_, ok, err := svc.Create(context.Background(), in, "key-"+string(rune('a'+i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && ok:
				created++
			case errors.Is(err, ErrBookingNotAllowed):
				refusals++
			default:
				t.Errorf("unexpected result ok=%v err=%v", ok, err)
			}
		}(i)
	}
	wg.Wait()

	if created != fleet || refusals != requests-fleet {
		t.Fatalf("expected %d created and %d refused, got %d and %d", fleet, requests-fleet, created, refusals)
	}
	if got := mem.carsBooked("2025-06-10"); got != fleet {
		t.Fatalf("expected %d cars booked, got %d", fleet, got)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, mem, n := newTestService(5)
	b, _, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, b.ID, StatusCompleted, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending cannot complete directly, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, b.ID, StatusConfirmed, "admin", "driver assigned"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := mem.carsBooked("2025-06-10"); got != 1 {
		t.Fatalf("confirming keeps the car, got %d", got)
	}

	got, err := svc.UpdateStatus(ctx, b.ID, StatusCancelled, "admin", "customer called")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if cars := mem.carsBooked("2025-06-10"); cars != 0 {
		t.Fatalf("cancelling releases the car, got %d", cars)
	}
	if _, err := svc.UpdateStatus(ctx, b.ID, StatusConfirmed, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", StatusConfirmed, "admin", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if mem.audits != 2 {
		t.Fatalf("expected 2 audit rows, got %d", mem.audits)
	}
	if len(n.changed) != 2 || n.changed[1] != "confirmed->cancelled" {
		t.Fatalf("unexpected notifications %v", n.changed)
	}
}

func TestService_CancelNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(5)
	b, _, err := svc.Create(ctx, validInput(), "key-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// An admin reset the day to zero after the booking was taken.
	mem.days["2025-06-10"] = availability.Day{Date: testutil.Date("2025-06-10")}
	if _, err := svc.UpdateStatus(ctx, b.ID, StatusCancelled, "admin", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := mem.carsBooked("2025-06-10"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
