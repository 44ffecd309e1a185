package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"taxibooking/internal/booking"
)

// Sender is one delivery channel. Unlike booking.Notifier it reports failures.
type Sender interface {
	Name() string
	BookingCreated(ctx context.Context, b booking.Booking) error
	BookingStatusChanged(ctx context.Context, b booking.Booking, from booking.Status) error
}

// Multi fans a booking notification out to every sender in the background and logs the
// ones that fail. It satisfies booking.Notifier.
type Multi struct {
	senders []Sender
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
}

func NewMulti(logger *log.Logger, senders ...Sender) *Multi {
	if logger == nil {
		logger = log.Default()
	}
	return &Multi{senders: senders, timeout: 10 * time.Second, logger: logger}
}

func (m *Multi) BookingCreated(ctx context.Context, b booking.Booking) {
	m.each(ctx, b.ID, "created", func(ctx context.Context, s Sender) error {
		return s.BookingCreated(ctx, b)
	})
}

func (m *Multi) BookingStatusChanged(ctx context.Context, b booking.Booking, from booking.Status) {
	m.each(ctx, b.ID, "status_changed", func(ctx context.Context, s Sender) error {
		return s.BookingStatusChanged(ctx, b, from)
	})
}

func (m *Multi) each(ctx context.Context, bookingID, kind string, fn func(context.Context, Sender) error) {
	// Delivery outlives the request.
	ctx = context.WithoutCancel(ctx)
	for _, s := range m.senders {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			if err := fn(ctx, s); err != nil {
				m.logger.Printf("notify failed channel=%s kind=%s booking_id=%s err=%v", s.Name(), kind, bookingID, err)
			}
		}()
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (m *Multi) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Log writes one line per booking notification.
type Log struct {
	Logger *log.Logger
}

func (Log) Name() string { return "log" }

func (l Log) BookingCreated(_ context.Context, b booking.Booking) error {
	l.logger().Printf("booking created id=%s reference=%s date=%s vehicle=%s price=%s %s",
		b.ID, b.Reference, b.TravelDate, b.VehicleType, b.Price.StringFixed(2), b.Currency)
	return nil
}

func (l Log) BookingStatusChanged(_ context.Context, b booking.Booking, from booking.Status) error {
	l.logger().Printf("booking status changed id=%s reference=%s from=%s to=%s", b.ID, b.Reference, from, b.Status)
	return nil
}

func (l Log) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}
