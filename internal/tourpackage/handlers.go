package tourpackage

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/api"
	"taxibooking/internal/audit"
	"taxibooking/internal/cache"
	"taxibooking/pkg/db"
)

type Handlers struct {
	DB    *pgxpool.Pool
	Repo  *Repository
	Audit *audit.Repository
	Cache cache.Store
}

func (h Handlers) PublicList(w http.ResponseWriter, r *http.Request) {
	kind := Kind(r.URL.Query().Get("kind"))
	if kind != "" && kind != KindTour && kind != KindTransfer {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "kind must be tour or transfer")
		return
	}
	items, err := cache.Load(r.Context(), h.Cache, "packages:list:"+string(kind), func() ([]Package, error) {
		return h.Repo.List(r.Context(), kind, false)
	})
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) PublicGet(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, err := cache.Load(r.Context(), h.Cache, "packages:slug:"+slug, func() (Package, error) {
		p, err := h.Repo.GetActiveBySlug(r.Context(), slug)
		if err != nil {
			return Package{}, err
		}
		p.Prices, err = h.Repo.Prices(r.Context(), p.ID)
		return p, err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), Kind(r.URL.Query().Get("kind")), true)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		p.Prices, err = h.Repo.Prices(r.Context(), p.ID)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	if err := ValidateInput(in); err != nil {
		writeErr(w, err)
		return
	}
	p, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusCreated, p)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	if err := ValidateInput(in); err != nil {
		writeErr(w, err)
		return
	}
	p, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hard := api.HardDelete(r)
	err := db.RunInTx(r.Context(), h.DB, func(ctx context.Context) error {
		if err := h.Repo.Delete(ctx, id, hard); err != nil {
			return err
		}
		return h.Audit.Record(ctx, "PACKAGE_DELETED", "package", id, api.Actor(ctx), map[string]any{"hard": hard})
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) PutPrices(w http.ResponseWriter, r *http.Request) {
	var req PricesRequest
	if !api.Decode(w, r, &req) {
		return
	}
	if err := ValidatePrices(req.Prices); err != nil {
		writeErr(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	err := db.RunInTx(r.Context(), h.DB, func(ctx context.Context) error {
		if err := h.Repo.ReplacePrices(ctx, id, req.Prices); err != nil {
			return err
		}
		return h.Audit.Record(ctx, "PACKAGE_PRICES_REPLACED", "package", id, api.Actor(ctx), map[string]any{"count": len(req.Prices)})
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)

	prices, err := h.Repo.Prices(r.Context(), id)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, prices)
}

func (h Handlers) invalidate(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "packages")
	}
}

func writeErr(w http.ResponseWriter, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, ve.Message)
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrSlugTaken):
		api.WriteError(w, http.StatusConflict, api.CodeConflict, err.Error())
	case errors.Is(err, ErrUnknownReference):
		api.WriteError(w, http.StatusUnprocessableEntity, api.CodeValidationFailed, err.Error())
	default:
		log.Printf("package request failed err=%v", err)
		api.WriteInternal(w)
	}
}
