package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/availability"
	"taxibooking/internal/civil"
	"taxibooking/internal/clock"
	"taxibooking/internal/season"
	"taxibooking/internal/settings"
)

// mapCache is an in-process cache.Store.
type mapCache struct {
	mu            sync.Mutex
	values        map[string][]byte
	invalidations int
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.values[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *mapCache) SetJSON(_ context.Context, key string, v any) {
	b, _ := json.Marshal(v)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = b
}

func (c *mapCache) Invalidate(_ context.Context, prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	for k := range c.values {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				delete(c.values, k)
			}
		}
	}
}

func (m *memDB) Range(_ context.Context, from, to civil.Date) ([]availability.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []availability.Day
	for _, d := range m.days {
		if !d.Date.Before(from.Time) && !d.Date.After(to.Time) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDB) Get(_ context.Context, date civil.Date) (availability.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[date.String()]
	if !ok {
		d = availability.Day{Date: date}
	}
	return d, nil
}

type noSeasons struct{}

func (noSeasons) List(context.Context, bool) ([]season.Season, error) { return nil, nil }

func TestHandlers_BookingsRefreshCachedAvailability(t *testing.T) {
	cfg := settings.Defaults()
	cfg.FleetSize = 1
	cfg.LimitedThreshold = 1
	mem := newMemDB()
	mc := &mapCache{values: map[string][]byte{}}
	clk := clock.NewFixed(now)

	avail := availability.NewService(mem, fixedSettings{cfg}, noSeasons{}, clk, time.UTC)
	svc := NewService(Deps{
		Tx:       mem.tx,
		Store:    mem,
		Capacity: mem,
		Checker:  avail,
		Pricer:   fakePricer{},
		Settings: fixedSettings{cfg},
		Audit:    mem,
		Cache:    mc,
		Clock:    clk,
	})

	r := chi.NewRouter()
	r.Get("/v1/availability", availability.Handlers{Service: avail, Cache: mc}.PublicRange)
	r.Post("/v1/bookings", Handlers{Service: svc}.Create)
	r.Patch("/v1/admin/bookings/{id}/status", Handlers{Service: svc}.UpdateStatus)

	day := func() availability.Entry {
		t.Helper()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/availability?from=2025-06-10&to=2025-06-10", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("availability: expected 200, got %d", rr.Code)
		}
		var got struct {
			Items []availability.Entry `json:"items"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || len(got.Items) != 1 {
			t.Fatalf("decode availability: %v %s", err, rr.Body.String())
		}
		return got.Items[0]
	}
	book := func(key string) int {
		body, _ := json.Marshal(validInput())
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewReader(body))
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	if e := day(); !e.BookingAllowed || e.CarsAvailable != 1 {
		t.Fatalf("expected a free car before booking, got %+v", e)
	}

	if code := book("key-1"); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	e := day()
	if e.BookingAllowed || e.CarsAvailable != 0 || e.Status != availability.StatusSoldOut {
		t.Fatalf("expected the cached day to show sold out after booking, got %+v", e)
	}

	before := mc.invalidations
	if code := book("key-1"); code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d", code)
	}
	if mc.invalidations != before {
		t.Fatalf("a replayed request changes nothing and must not invalidate")
	}

	var id string
	for k := range mem.bookings {
		id = k
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/v1/admin/bookings/"+id+"/status", strings.NewReader(`{"status":"cancelled"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	if e := day(); !e.BookingAllowed || e.CarsAvailable != 1 {
		t.Fatalf("expected the car back after cancelling, got %+v", e)
	}
}
