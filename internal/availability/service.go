package availability

import (
	"context"
	"time"

	"taxibooking/internal/civil"
	"taxibooking/internal/clock"
	"taxibooking/internal/season"
	"taxibooking/internal/settings"
)

// Store is the persistence the service needs; *Repository implements it.
type Store interface {
	Range(ctx context.Context, from, to civil.Date) ([]Day, error)
	Get(ctx context.Context, date civil.Date) (Day, error)
}

type SeasonLister interface {
	List(ctx context.Context, includeInactive bool) ([]season.Season, error)
}

type Service struct {
	store    Store
	settings settings.Provider
	seasons  SeasonLister
	clock    clock.Clock
	loc      *time.Location
}

func NewService(store Store, sp settings.Provider, seasons SeasonLister, c clock.Clock, loc *time.Location) *Service {
	if c == nil {
		c = clock.NewSystem()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, settings: sp, seasons: seasons, clock: c, loc: loc}
}

func (s *Service) Today() civil.Date {
	return civil.Date{Time: clock.Today(s.clock, s.loc)}
}

// Window returns one admin entry per date between from and to inclusive.
func (s *Service) Window(ctx context.Context, from, to civil.Date) ([]AdminEntry, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	seasons, err := s.seasons.List(ctx, false)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]Day, len(stored))
	for _, d := range stored {
		byDate[d.Date.String()] = d
	}

	w := WindowAt(s.clock.Now(), s.loc, cfg)
	var out []AdminEntry
	for _, date := range civil.Range(from, to) {
		d, ok := byDate[date.String()]
		if !ok {
			d = Day{Date: date}
		}
		out = append(out, s.entry(d, w, cfg, seasons))
	}
	return out, nil
}

func (s *Service) Day(ctx context.Context, date civil.Date) (AdminEntry, error) {
	d, err := s.store.Get(ctx, date)
	if err != nil {
		return AdminEntry{}, err
	}
	return s.Evaluate(ctx, d)
}

// Evaluate computes status and the booking check for an already loaded day.
func (s *Service) Evaluate(ctx context.Context, d Day) (AdminEntry, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return AdminEntry{}, err
	}
	seasons, err := s.seasons.List(ctx, false)
	if err != nil {
		return AdminEntry{}, err
	}
	return s.entry(d, WindowAt(s.clock.Now(), s.loc, cfg), cfg, seasons), nil
}

func (s *Service) entry(d Day, w Window, cfg settings.Settings, seasons []season.Season) AdminEntry {
	name := ""
	if se := season.Resolve(d.Date, seasons); se != nil {
		name = se.Name
	}
	return AdminEntry{
		Entry:     Evaluate(d, w, cfg, name),
		IsBlocked: d.IsBlocked,
		Note:      d.Note,
		Source:    d.Source,
		UpdatedAt: d.UpdatedAt,
	}
}
