package vehicle

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
	items, err := cache.Load(r.Context(), h.Cache, "vehicles", func() ([]Vehicle, error) {
		return h.Repo.List(r.Context(), false)
	})
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), true)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	v, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusCreated, v)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	v, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusOK, v)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id"), api.HardDelete(r)); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) invalidate(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "vehicles", "packages", "routes")
	}
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrSlugTaken), errors.Is(err, ErrInUse):
		api.WriteError(w, http.StatusConflict, api.CodeConflict, err.Error())
	default:
		log.Printf("vehicle write failed err=%v", err)
		api.WriteInternal(w)
	}
}
