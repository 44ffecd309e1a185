package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"taxibooking/internal/booking"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON value published for every booking change.
type Event struct {
	Type       string          `json:"type"`
	BookingID  string          `json:"bookingId"`
	Reference  string          `json:"reference"`
	FromStatus booking.Status  `json:"fromStatus,omitempty"`
	Status     booking.Status  `json:"status"`
	OccurredAt time.Time       `json:"occurredAt"`
	Booking    booking.Booking `json:"booking"`
}

// Kafka publishes booking events keyed by booking id, so one booking's events stay ordered.
type Kafka struct {
	w   messageWriter
	now func() time.Time
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (*Kafka) Name() string { return "kafka" }

func (k *Kafka) BookingCreated(ctx context.Context, b booking.Booking) error {
	return k.publish(ctx, Event{Type: booking.EventCreated, Status: b.Status}, b)
}

func (k *Kafka) BookingStatusChanged(ctx context.Context, b booking.Booking, from booking.Status) error {
	return k.publish(ctx, Event{Type: booking.EventStatusChanged, FromStatus: from, Status: b.Status}, b)
}

func (k *Kafka) publish(ctx context.Context, e Event, b booking.Booking) error {
	e.BookingID = b.ID
	e.Reference = b.Reference
	e.OccurredAt = k.now()
	e.Booking = b
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafka.Message{Key: []byte(b.ID), Value: value})
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
