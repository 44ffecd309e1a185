package season

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/api"
	"taxibooking/internal/cache"
	"taxibooking/internal/civil"
)

type Handlers struct {
	Repo  *Repository
	Cache cache.Store
}

type Input struct {
	Name      string `json:"name" validate:"required,max=80"`
	StartDate string `json:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" validate:"required,isodate"`
	Recurring bool   `json:"recurring"`
	Priority  int    `json:"priority" validate:"min=-1000,max=1000"`
	IsActive  *bool  `json:"isActive"`
}

// Season converts a validated input. A non-recurring range must not end before it starts.
func (in Input) Season() (Season, map[string]string) {
	start, err := civil.Parse(in.StartDate)
	if err != nil {
		return Season{}, map[string]string{"startDate": "startDate must be a date formatted YYYY-MM-DD"}
	}
	end, err := civil.Parse(in.EndDate)
	if err != nil {
		return Season{}, map[string]string{"endDate": "endDate must be a date formatted YYYY-MM-DD"}
	}
	if !in.Recurring && end.Before(start.Time) {
		return Season{}, map[string]string{"endDate": "endDate must not be before startDate"}
	}
	s := Season{
		Name:      in.Name,
		StartDate: start,
		EndDate:   end,
		Recurring: in.Recurring,
		Priority:  in.Priority,
		IsActive:  true,
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	return s, nil
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
	s, details := in.Season()
	if details != nil {
		api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "validation failed", details)
		return
	}
	out, err := h.Repo.Create(r.Context(), s)
	if err != nil {
		log.Printf("season create failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusCreated, out)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	s, details := in.Season()
	if details != nil {
		api.WriteErrorDetails(w, http.StatusBadRequest, api.CodeValidationFailed, "validation failed", details)
		return
	}
	out, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), s)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "season not found")
		return
	}
	if err != nil {
		log.Printf("season update failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	h.invalidate(r)
	api.WriteJSON(w, http.StatusOK, out)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id"), api.HardDelete(r))
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "season not found")
		return
	}
	if err != nil {
		log.Printf("season delete failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

// Seasons feed availability entries and package prices.
func (h Handlers) invalidate(r *http.Request) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "availability", "packages")
	}
}
