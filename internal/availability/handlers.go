package availability

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/api"
	"taxibooking/internal/audit"
	"taxibooking/internal/cache"
	"taxibooking/internal/civil"
	"taxibooking/pkg/db"
)

type Handlers struct {
	DB      *pgxpool.Pool
	Service *Service
	Repo    *Repository
	Audit   *audit.Repository
	Cache   cache.Store
}

type SyncRequest struct {
	Days []Patch `json:"days" validate:"required,min=1,max=400,dive"`
}

func (h Handlers) PublicRange(w http.ResponseWriter, r *http.Request) {
	today := h.Service.Today()
	from, to, details := ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), today)
	if details != nil {
		api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid range", details)
		return
	}
	key := "availability:" + today.String() + ":" + from.String() + ":" + to.String()
	items, err := cache.Load(r.Context(), h.Cache, key, func() ([]Entry, error) {
		entries, err := h.Service.Window(r.Context(), from, to)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Entry)
		}
		return out, nil
	})
	if err != nil {
		log.Printf("availability range failed from=%s to=%s err=%v", from, to, err)
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) PublicDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	e, err := h.Service.Day(r.Context(), date)
	if err != nil {
		log.Printf("availability day failed date=%s err=%v", date, err)
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, e.Entry)
}

func (h Handlers) AdminRange(w http.ResponseWriter, r *http.Request) {
	from, to, details := ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.Service.Today())
	if details != nil {
		api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid range", details)
		return
	}
	items, err := h.Service.Window(r.Context(), from, to)
	if err != nil {
		log.Printf("availability range failed from=%s to=%s err=%v", from, to, err)
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) Put(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var p Patch
	if !api.Decode(w, r, &p) {
		return
	}

	var saved Day
	err := db.RunInTx(r.Context(), h.DB, func(ctx context.Context) error {
		current, err := h.Repo.Lock(ctx, date)
		if err != nil {
			return err
		}
		next, _ := p.Apply(current)
		next.Source = "admin"
		saved, err = h.Repo.Save(ctx, next)
		if err != nil {
			return err
		}
		return h.Audit.Record(ctx, "AVAILABILITY_UPDATED", "availability", date.String(), api.Actor(ctx), map[string]any{
			"carsBooked": saved.CarsBooked,
			"isBlocked":  saved.IsBlocked,
			"note":       saved.Note,
		})
	})
	if err != nil {
		log.Printf("availability update failed date=%s err=%v", date, err)
		api.WriteInternal(w)
		return
	}
	h.invalidate(r)

	e, err := h.Service.Evaluate(r.Context(), saved)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// Sync applies a calendar export: each entry is upserted by date in one transaction.
func (h Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !api.Decode(w, r, &req) {
		return
	}
	for i, p := range req.Days {
		if p.Date == "" {
			api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "validation failed", map[string]string{
				"days[" + strconv.Itoa(i) + "].date": "date is a required field",
			})
			return
		}
	}

	var res SyncResult
	err := db.RunInTx(r.Context(), h.DB, func(ctx context.Context) error {
		var err error
		res, err = h.Repo.Sync(ctx, req.Days)
		if err != nil {
			return err
		}
		return h.Audit.Record(ctx, "AVAILABILITY_SYNCED", "availability", "", api.Actor(ctx), res)
	})
	if err != nil {
		log.Printf("availability sync failed days=%d err=%v", len(req.Days), err)
		api.WriteInternal(w)
		return
	}
	log.Printf("availability synced inserted=%d updated=%d unchanged=%d", res.Inserted, res.Updated, res.Unchanged)
	if res.Inserted+res.Updated > 0 {
		h.invalidate(r)
	}
	api.WriteJSON(w, http.StatusOK, res)
}

func (h Handlers) invalidate(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "availability")
	}
}

func dateParam(w http.ResponseWriter, r *http.Request) (civil.Date, bool) {
	date, err := civil.Parse(chi.URLParam(r, "date"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "date must be formatted YYYY-MM-DD")
		return civil.Date{}, false
	}
	return date, true
}
