package booking

import (
	"encoding/json"
	"time"
)

const (
	EventCreated       = "BOOKING_CREATED"
	EventStatusChanged = "BOOKING_STATUS_CHANGED"
)

// Event is one entry of a booking's timeline.
type Event struct {
	ID         string          `json:"id"`
	BookingID  string          `json:"bookingId"`
	EventType  string          `json:"eventType"`
	Summary    string          `json:"summary"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func newEvent(bookingID, eventType, summary, actor string, at time.Time, data any) Event {
	e := Event{BookingID: bookingID, EventType: eventType, Summary: summary, Actor: actor, OccurredAt: at}
	if data != nil {
		e.Data, _ = json.Marshal(data)
	}
	return e
}
