package contact

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/api"
)

type Store interface {
	Create(ctx context.Context, in Input) (Message, error)
	List(ctx context.Context, handled *bool, limit int) ([]Message, error)
	SetHandled(ctx context.Context, id string, handled bool) (Message, error)
	Delete(ctx context.Context, id string) error
}

type Handlers struct {
	Repo Store
}

type createResponse struct {
	ID       string `json:"id"`
	Received bool   `json:"received"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.Decode(w, r, &in) {
		return
	}
	m, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	log.Printf("contact message received id=%s", m.ID)
	api.WriteJSON(w, http.StatusCreated, createResponse{ID: m.ID, Received: true})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	handled, err := api.QueryOptionalBool(r, "handled")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
		return
	}
	items, err := h.Repo.List(r.Context(), handled, api.QueryInt(r, "limit", 100))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteItems(w, items)
}

type HandledRequest struct {
	Handled *bool `json:"handled" validate:"required"`
}

func (h Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	var req HandledRequest
	if !api.Decode(w, r, &req) {
		return
	}
	m, err := h.Repo.SetHandled(r.Context(), chi.URLParam(r, "id"), *req.Handled)
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, m)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
		return
	}
	log.Printf("contact request failed err=%v", err)
	api.WriteInternal(w)
}
