package route

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/api"
	"taxibooking/internal/cache"
)

type Handlers struct {
	Repo  *Repository
	Cache cache.Store
}

func (h Handlers) PublicList(w http.ResponseWriter, r *http.Request) {
	items, err := cache.Load(r.Context(), h.Cache, "routes:list", func() ([]Route, error) {
		return h.Repo.List(r.Context(), false)
	})
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) PublicGet(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rt, err := cache.Load(r.Context(), h.Cache, "routes:slug:"+slug, func() (Route, error) {
		return h.Repo.GetActiveBySlug(r.Context(), slug)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rt)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), true)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	rt, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rt)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	rt, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusCreated, rt)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	rt, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusOK, rt)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id"), api.HardDelete(r)); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) PutRates(w http.ResponseWriter, r *http.Request) {
	var req RatesRequest
	if !api.Decode(w, r, &req) {
		return
	}
	if details := ValidateRates(req.Rates); details != nil {
		api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid rates", details)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Repo.ReplaceRates(r.Context(), id, req.Rates); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)

	rates, err := h.Repo.Rates(r.Context(), id)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, rates)
}

func (h Handlers) invalidate(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "routes")
	}
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrSlugTaken):
		api.WriteError(w, http.StatusConflict, api.CodeConflict, err.Error())
	case errors.Is(err, ErrUnknownVehicle):
		api.WriteError(w, http.StatusUnprocessableEntity, api.CodeValidationFailed, err.Error())
	default:
		log.Printf("route request failed err=%v", err)
		api.WriteInternal(w)
	}
}
