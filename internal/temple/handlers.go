package temple

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
	items, err := cache.Load(r.Context(), h.Cache, "temples:list", func() ([]Temple, error) {
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
	t, err := cache.Load(r.Context(), h.Cache, "temples:slug:"+slug, func() (Temple, error) {
		return h.Repo.GetActiveBySlug(r.Context(), slug)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
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
	t, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusCreated, t)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	t, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusOK, t)
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
		h.Cache.Invalidate(r.Context(), "temples", "packages")
	}
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrSlugTaken):
		api.WriteError(w, http.StatusConflict, api.CodeConflict, err.Error())
	default:
		log.Printf("temple request failed err=%v", err)
		api.WriteInternal(w)
	}
}
