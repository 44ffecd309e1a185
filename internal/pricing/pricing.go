package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"taxibooking/internal/availability"
	"taxibooking/internal/civil"
	"taxibooking/internal/season"
	"taxibooking/internal/settings"
)

var ErrPriceUnavailable = errors.New("no price for this trip, vehicle and date")

// CurrencyScale is the number of decimals quoted prices are rounded to.
const CurrencyScale int32 = 2

type PackagePrices interface {
	PriceFor(ctx context.Context, packageID, vehicleType string, seasonID *string) (decimal.Decimal, bool, error)
}

type RouteRates interface {
	RateFor(ctx context.Context, routeID, vehicleType string) (decimal.Decimal, bool, error)
}

type SeasonResolver interface {
	ForDate(ctx context.Context, d civil.Date) (*season.Season, error)
}

type AvailabilityReader interface {
	Day(ctx context.Context, date civil.Date) (availability.AdminEntry, error)
}

// Trip names what is being priced: exactly one of PackageID and RouteID is set.
type Trip struct {
	PackageID   string
	RouteID     string
	VehicleType string
	Date        civil.Date
}

// Price is the resolved amount for a trip.
type Price struct {
	Amount   decimal.Decimal
	Season   string
	SeasonID *string
}

type Quote struct {
	PackageID      string             `json:"packageId,omitempty"`
	RouteID        string             `json:"routeId,omitempty"`
	VehicleType    string             `json:"vehicleType"`
	Date           civil.Date         `json:"date"`
	Price          string             `json:"price"`
	Currency       string             `json:"currency"`
	Season         string             `json:"season,omitempty"`
	Availability   availability.Entry `json:"availability"`
	BookingAllowed bool               `json:"bookingAllowed"`
}

type Service struct {
	packages     PackagePrices
	routes       RouteRates
	seasons      SeasonResolver
	availability AvailabilityReader
	settings     settings.Provider
}

func NewService(packages PackagePrices, routes RouteRates, seasons SeasonResolver, av AvailabilityReader, sp settings.Provider) *Service {
	return &Service{packages: packages, routes: routes, seasons: seasons, availability: av, settings: sp}
}

// Price resolves the season for the trip date, then the package price for that season, falling back
// to the season-less price. Routes have one rate per vehicle regardless of season.
func (s *Service) Price(ctx context.Context, t Trip) (Price, error) {
	se, err := s.seasons.ForDate(ctx, t.Date)
	if err != nil {
		return Price{}, fmt.Errorf("resolve season: %w", err)
	}
	out := Price{}
	if se != nil {
		out.Season = se.Name
		id := se.ID
		out.SeasonID = &id
	}

	var (
		amount decimal.Decimal
		ok     bool
	)
	switch {
	case t.PackageID != "":
		if out.SeasonID != nil {
			amount, ok, err = s.packages.PriceFor(ctx, t.PackageID, t.VehicleType, out.SeasonID)
			if err != nil {
				return Price{}, fmt.Errorf("package price: %w", err)
			}
		}
		if !ok {
			amount, ok, err = s.packages.PriceFor(ctx, t.PackageID, t.VehicleType, nil)
			if err != nil {
				return Price{}, fmt.Errorf("package price: %w", err)
			}
		}
	case t.RouteID != "":
		amount, ok, err = s.routes.RateFor(ctx, t.RouteID, t.VehicleType)
		if err != nil {
			return Price{}, fmt.Errorf("route rate: %w", err)
		}
	}
	if !ok || amount.LessThanOrEqual(decimal.Zero) {
		return Price{}, ErrPriceUnavailable
	}
	out.Amount = amount.Round(CurrencyScale)
	return out, nil
}

func (s *Service) Quote(ctx context.Context, t Trip) (Quote, error) {
	p, err := s.Price(ctx, t)
	if err != nil {
		return Quote{}, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return Quote{}, err
	}
	day, err := s.availability.Day(ctx, t.Date)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		PackageID:      t.PackageID,
		RouteID:        t.RouteID,
		VehicleType:    t.VehicleType,
		Date:           t.Date,
		Price:          p.Amount.StringFixed(CurrencyScale),
		Currency:       cfg.Currency,
		Season:         p.Season,
		Availability:   day.Entry,
		BookingAllowed: day.BookingAllowed,
	}, nil
}
