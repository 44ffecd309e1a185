package tourpackage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindTour     Kind = "tour"
	KindTransfer Kind = "transfer"
)

// Package is a bookable tour itinerary or a fixed transfer.
type Package struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Kind          Kind            `json:"kind"`
	Title         string          `json:"title"`
	Summary       string          `json:"summary"`
	Description   string          `json:"description"`
	DurationHours decimal.Decimal `json:"durationHours"`
	DistanceKM    decimal.Decimal `json:"distanceKm"`
	ImageURL      string          `json:"imageUrl"`
	Highlights    []string        `json:"highlights"`
	TempleIDs     []string        `json:"templeIds"`
	IsActive      bool            `json:"isActive"`
	SortOrder     int             `json:"sortOrder"`
	Prices        []Price         `json:"prices,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Price is one cell of the package price table. A nil SeasonID is the fallback price.
type Price struct {
	VehicleType string          `json:"vehicleType"`
	SeasonID    *string         `json:"seasonId"`
	SeasonName  string          `json:"seasonName,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

type Input struct {
	Slug          string          `json:"slug" validate:"required,slug,max=80"`
	Kind          Kind            `json:"kind" validate:"required,oneof=tour transfer"`
	Title         string          `json:"title" validate:"required,max=160"`
	Summary       string          `json:"summary" validate:"max=500"`
	Description   string          `json:"description" validate:"max=10000"`
	DurationHours decimal.Decimal `json:"durationHours"`
	DistanceKM    decimal.Decimal `json:"distanceKm"`
	ImageURL      string          `json:"imageUrl" validate:"omitempty,url"`
	Highlights    []string        `json:"highlights" validate:"max=20,dive,max=200"`
	TempleIDs     []string        `json:"templeIds" validate:"max=30,dive,uuid"`
	IsActive      *bool           `json:"isActive"`
	SortOrder     int             `json:"sortOrder"`
}

type PriceInput struct {
	VehicleType string          `json:"vehicleType" validate:"required,slug"`
	SeasonID    *string         `json:"seasonId" validate:"omitnil,uuid"`
	Price       decimal.Decimal `json:"price"`
}

type PricesRequest struct {
	Prices []PriceInput `json:"prices" validate:"max=200,dive"`
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateInput checks what struct tags cannot express.
func ValidateInput(in Input) error {
	if in.DurationHours.IsNegative() || in.DistanceKM.IsNegative() {
		return ValidationError{Code: "PACKAGE_MEASURE_INVALID", Message: "duration and distance must not be negative"}
	}
	return nil
}

// ValidatePrices enforces the price table contract:
// every price is > 0 with at most two decimals, and each (vehicle, season) cell appears once.
func ValidatePrices(prices []PriceInput) error {
	seen := make(map[string]struct{}, len(prices))
	for _, p := range prices {
		if p.Price.LessThanOrEqual(decimal.Zero) {
			return ValidationError{Code: "PRICE_INVALID", Message: "price must be > 0"}
		}
		if !p.Price.Equal(p.Price.Round(2)) {
			return ValidationError{Code: "PRICE_SCALE_INVALID", Message: "price must have at most 2 decimals"}
		}
		key := p.VehicleType + "|"
		if p.SeasonID != nil {
			key += *p.SeasonID
		}
		if _, dup := seen[key]; dup {
			return ValidationError{Code: "PRICE_DUPLICATE", Message: "duplicate price for " + p.VehicleType}
		}
		seen[key] = struct{}{}
	}
	return nil
}
