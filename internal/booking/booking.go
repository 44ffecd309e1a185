package booking

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taxibooking/internal/civil"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// HoldsCar reports whether a booking in status s occupies a car on its travel date.
func (s Status) HoldsCar() bool {
	return s == StatusPending || s == StatusConfirmed
}

var (
	ErrNotFound               = errors.New("booking not found")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key was already used with a different request")
	ErrBookingNotAllowed      = errors.New("booking not allowed for this date")
	ErrInvalidTransition      = errors.New("invalid status transition")
	// ErrDuplicateKey is returned by a Store when the idempotency key is already taken.
	ErrDuplicateKey = errors.New("idempotency key already stored")
)

// NotAllowedError carries the reason a date cannot take another booking.
type NotAllowedError struct {
	Reason string
}

func (e NotAllowedError) Error() string {
	return ErrBookingNotAllowed.Error() + ": " + e.Reason
}

func (e NotAllowedError) Unwrap() error {
	return ErrBookingNotAllowed
}

type Booking struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"`
	PackageID      string          `json:"packageId,omitempty"`
	RouteID        string          `json:"routeId,omitempty"`
	VehicleType    string          `json:"vehicleType"`
	TravelDate     civil.Date      `json:"travelDate"`
	PickupTime     string          `json:"pickupTime,omitempty"`
	PickupLocation string          `json:"pickupLocation"`
	DropLocation   string          `json:"dropLocation,omitempty"`
	Passengers     int             `json:"passengers"`
	CustomerName   string          `json:"customerName"`
	CustomerPhone  string          `json:"customerPhone"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	SeasonName     string          `json:"seasonName,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	IdempotencyKey string          `json:"-"`
	RequestHash    string          `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreateInput is the public booking payload.
type CreateInput struct {
	PackageID      string `json:"packageId" validate:"required_without=RouteID,excluded_with=RouteID,omitempty,uuid"`
	RouteID        string `json:"routeId" validate:"omitempty,uuid"`
	VehicleType    string `json:"vehicleType" validate:"required,slug"`
	TravelDate     string `json:"travelDate" validate:"required,isodate"`
	PickupTime     string `json:"pickupTime" validate:"omitempty,hhmm"`
	PickupLocation string `json:"pickupLocation" validate:"required,max=300"`
	DropLocation   string `json:"dropLocation" validate:"max=300"`
	Passengers     int    `json:"passengers" validate:"required,min=1,max=60"`
	CustomerName   string `json:"customerName" validate:"required,max=120"`
	CustomerPhone  string `json:"customerPhone" validate:"required,min=7,max=20"`
	CustomerEmail  string `json:"customerEmail" validate:"omitempty,email,max=200"`
	Notes          string `json:"notes" validate:"max=2000"`
}

// Normalize trims free text so retries that differ only in whitespace hash the same.
func (in CreateInput) Normalize() CreateInput {
	out := in
	for _, f := range []*string{&out.PackageID, &out.RouteID, &out.VehicleType, &out.TravelDate, &out.PickupTime,
		&out.PickupLocation, &out.DropLocation, &out.CustomerName, &out.CustomerPhone, &out.CustomerEmail, &out.Notes} {
		*f = strings.TrimSpace(*f)
	}
	out.CustomerEmail = strings.ToLower(out.CustomerEmail)
	return out
}

// RequestHash fingerprints a normalized payload for idempotent replays.
func RequestHash(in CreateInput) string {
	b, _ := json.Marshal(in.Normalize())
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// NewReference returns a short customer-facing reference such as TB250114-7F3K9Q.
func NewReference(travelDate civil.Date) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TB" + travelDate.Format("060102") + "-" + raw[:6]
}

// PhoneMatches compares two phone numbers on their digits, ignoring a leading country code.
func PhoneMatches(a, b string) bool {
	da, db := digits(a), digits(b)
	if da == "" || db == "" {
		return false
	}
	if len(da) > 10 {
		da = da[len(da)-10:]
	}
	if len(db) > 10 {
		db = db[len(db)-10:]
	}
	return da == db
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Filter narrows the admin booking list. Zero values match everything.
type Filter struct {
	Status Status
	From   *civil.Date
	To     *civil.Date
	Limit  int
}
