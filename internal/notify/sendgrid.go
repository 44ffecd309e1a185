package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"taxibooking/internal/booking"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Email sends booking notifications to the business inbox through SendGrid.
type Email struct {
	key        string
	from       *sgmail.Email
	to         *sgmail.Email
	subjPrefix string
	send       func(ctx context.Context, m *sgmail.SGMailV3) error
}

func NewEmail(apiKey, fromName, fromEmail, toEmail string) *Email {
	e := &Email{
		key:        apiKey,
		from:       sgmail.NewEmail(fromName, fromEmail),
		to:         sgmail.NewEmail(fromName, toEmail),
		subjPrefix: "[" + fromName + "] ",
	}
	e.send = e.post
	return e
}

func (*Email) Name() string { return "sendgrid" }

func (e *Email) BookingCreated(ctx context.Context, b booking.Booking) error {
	subject := fmt.Sprintf("New booking %s for %s", b.Reference, b.TravelDate)
	return e.send(ctx, e.message(subject, bookingText(b)))
}

func (e *Email) BookingStatusChanged(ctx context.Context, b booking.Booking, from booking.Status) error {
	subject := fmt.Sprintf("Booking %s is now %s", b.Reference, b.Status)
	body := fmt.Sprintf("Status changed from %s to %s.\n\n%s", from, b.Status, bookingText(b))
	return e.send(ctx, e.message(subject, body))
}

func (e *Email) message(subject, text string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = e.subjPrefix + subject
	p.AddTos(e.to)

	m := sgmail.NewV3Mail()
	m.SetFrom(e.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", text))
	return m
}

func (e *Email) post(_ context.Context, m *sgmail.SGMailV3) error {
	req := sendgrid.GetRequest(e.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func bookingText(b booking.Booking) string {
	var sb strings.Builder
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, v)
		}
	}
	line("Reference", b.Reference)
	line("Status", string(b.Status))
	line("Travel date", b.TravelDate.String())
	line("Pickup time", b.PickupTime)
	line("Pickup", b.PickupLocation)
	line("Drop", b.DropLocation)
	line("Vehicle", b.VehicleType)
	line("Passengers", fmt.Sprint(b.Passengers))
	line("Season", b.SeasonName)
	line("Price", b.Price.StringFixed(2)+" "+b.Currency)
	line("Customer", b.CustomerName)
	line("Phone", b.CustomerPhone)
	line("Email", b.CustomerEmail)
	line("Notes", b.Notes)
	return sb.String()
}
