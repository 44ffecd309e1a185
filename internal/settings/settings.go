package settings

import (
	"context"
	"strconv"
	"strings"
)

// Settings is the typed view over the key/value settings table.
type Settings struct {
	BusinessName     string `json:"businessName"`
	Phone            string `json:"phone"`
	WhatsApp         string `json:"whatsapp"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	Currency         string `json:"currency"`
	FleetSize        int    `json:"fleetSize"`
	LimitedThreshold int    `json:"limitedThreshold"`
	MaxAdvanceDays   int    `json:"maxAdvanceDays"`
	MinLeadHours     int    `json:"minLeadHours"`
	BookingsEnabled  bool   `json:"bookingsEnabled"`
}

// Public is the subset the marketing site may see.
type Public struct {
	BusinessName string `json:"businessName"`
	Phone        string `json:"phone"`
	WhatsApp     string `json:"whatsapp"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Currency     string `json:"currency"`
}

const (
	KeyBusinessName     = "business_name"
	KeyPhone            = "phone"
	KeyWhatsApp         = "whatsapp"
	KeyEmail            = "email"
	KeyAddress          = "address"
	KeyCurrency         = "currency"
	KeyFleetSize        = "fleet_size"
	KeyLimitedThreshold = "limited_threshold"
	KeyMaxAdvanceDays   = "max_advance_days"
	KeyMinLeadHours     = "min_lead_hours"
	KeyBookingsEnabled  = "bookings_enabled"
)

// Provider is what other modules depend on to read settings.
type Provider interface {
	Get(ctx context.Context) (Settings, error)
}

func Defaults() Settings {
	return Settings{
		Currency:         "INR",
		FleetSize:        10,
		LimitedThreshold: 5,
		MaxAdvanceDays:   180,
		BookingsEnabled:  true,
	}
}

// FromMap overlays stored values on the defaults. Unparseable numbers keep the default.
func FromMap(m map[string]string) Settings {
	s := Defaults()
	str := func(key string, dst *string) {
		if v, ok := m[key]; ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := m[key]; ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	str(KeyBusinessName, &s.BusinessName)
	str(KeyPhone, &s.Phone)
	str(KeyWhatsApp, &s.WhatsApp)
	str(KeyEmail, &s.Email)
	str(KeyAddress, &s.Address)
	str(KeyCurrency, &s.Currency)
	num(KeyFleetSize, &s.FleetSize)
	num(KeyLimitedThreshold, &s.LimitedThreshold)
	num(KeyMaxAdvanceDays, &s.MaxAdvanceDays)
	num(KeyMinLeadHours, &s.MinLeadHours)
	if v, ok := m[KeyBookingsEnabled]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			s.BookingsEnabled = b
		}
	}
	if s.LimitedThreshold < 1 {
		s.LimitedThreshold = 1
	}
	if s.Currency == "" {
		s.Currency = "INR"
	}
	return s
}

func (s Settings) Public() Public {
	return Public{
		BusinessName: s.BusinessName,
		Phone:        s.Phone,
		WhatsApp:     s.WhatsApp,
		Email:        s.Email,
		Address:      s.Address,
		Currency:     s.Currency,
	}
}

// Update is a partial settings change; nil fields are left alone.
type Update struct {
	BusinessName     *string `json:"businessName" validate:"omitnil,max=120"`
	Phone            *string `json:"phone" validate:"omitnil,max=32"`
	WhatsApp         *string `json:"whatsapp" validate:"omitnil,max=32"`
	Email            *string `json:"email" validate:"omitnil,omitempty,email"`
	Address          *string `json:"address" validate:"omitnil,max=300"`
	Currency         *string `json:"currency" validate:"omitnil,len=3,uppercase"`
	FleetSize        *int    `json:"fleetSize" validate:"omitnil,min=0,max=1000"`
	LimitedThreshold *int    `json:"limitedThreshold" validate:"omitnil,min=1,max=1000"`
	MaxAdvanceDays   *int    `json:"maxAdvanceDays" validate:"omitnil,min=1,max=730"`
	MinLeadHours     *int    `json:"minLeadHours" validate:"omitnil,min=0,max=168"`
	BookingsEnabled  *bool   `json:"bookingsEnabled"`
}

// Changes flattens the update into the key/value pairs to store.
func (u Update) Changes() map[string]string {
	out := map[string]string{}
	setStr := func(key string, v *string) {
		if v != nil {
			out[key] = strings.TrimSpace(*v)
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			out[key] = strconv.Itoa(*v)
		}
	}
	setStr(KeyBusinessName, u.BusinessName)
	setStr(KeyPhone, u.Phone)
	setStr(KeyWhatsApp, u.WhatsApp)
	setStr(KeyEmail, u.Email)
	setStr(KeyAddress, u.Address)
	setStr(KeyCurrency, u.Currency)
	setInt(KeyFleetSize, u.FleetSize)
	setInt(KeyLimitedThreshold, u.LimitedThreshold)
	setInt(KeyMaxAdvanceDays, u.MaxAdvanceDays)
	setInt(KeyMinLeadHours, u.MinLeadHours)
	if u.BookingsEnabled != nil {
		out[KeyBookingsEnabled] = strconv.FormatBool(*u.BookingsEnabled)
	}
	return out
}
