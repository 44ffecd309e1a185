package booking

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/api"
	"taxibooking/internal/civil"
	"taxibooking/internal/pricing"
)

type Handlers struct {
	Service *Service
	Repo    *Repository
}

// PublicView is what a customer sees when looking a booking up by reference.
type PublicView struct {
	Reference      string     `json:"reference"`
	Status         Status     `json:"status"`
	TravelDate     civil.Date `json:"travelDate"`
	PickupTime     string     `json:"pickupTime,omitempty"`
	PickupLocation string     `json:"pickupLocation"`
	DropLocation   string     `json:"dropLocation,omitempty"`
	VehicleType    string     `json:"vehicleType"`
	Passengers     int        `json:"passengers"`
	CustomerName   string     `json:"customerName"`
	Price          string     `json:"price"`
	Currency       string     `json:"currency"`
}

func (b Booking) Public() PublicView {
	return PublicView{
		Reference:      b.Reference,
		Status:         b.Status,
		TravelDate:     b.TravelDate,
		PickupTime:     b.PickupTime,
		PickupLocation: b.PickupLocation,
		DropLocation:   b.DropLocation,
		VehicleType:    b.VehicleType,
		Passengers:     b.Passengers,
		CustomerName:   b.CustomerName,
		Price:          b.Price.StringFixed(pricing.CurrencyScale),
		Currency:       b.Currency,
	}
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeIdempotencyKeyRequired, ErrIdempotencyKeyRequired.Error())
		return
	}
	if len(key) > 200 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "Idempotency-Key must be at most 200 characters")
		return
	}
	var in CreateInput
	if !api.Decode(w, r, &in) {
		return
	}

	b, created, err := h.Service.Create(r.Context(), in, key)
	if err != nil {
		WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	api.WriteJSON(w, status, b.Public())
}

func (h Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if strings.TrimSpace(phone) == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "phone is required")
		return
	}
	b, err := h.Repo.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err == nil && !PhoneMatches(b.CustomerPhone, phone) {
		err = ErrNotFound
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b.Public())
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f Filter
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
			return
		}
		f.Status = st
	}
	for _, p := range []struct {
		key string
		dst **civil.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		d, err := civil.Parse(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, p.key+" must be formatted YYYY-MM-DD")
			return
		}
		*p.dst = &d
	}
	f.Limit = api.QueryInt(r, "limit", 100)

	items, err := h.Repo.List(r.Context(), f)
	if err != nil {
		log.Printf("booking list failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Note   string `json:"note" validate:"max=500"`
}

func (h Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !api.Decode(w, r, &req) {
		return
	}
	b, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(req.Status), api.Actor(r.Context()), req.Note)
	if err != nil {
		WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Repo.Get(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	items, err := h.Repo.ListEvents(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	api.WriteItems(w, items)
}

// WriteError maps booking errors to API responses. The wizard reuses it for submits.
func WriteError(w http.ResponseWriter, err error) {
	var notAllowed NotAllowedError
	switch {
	case errors.As(err, &notAllowed):
		api.WriteErrorDetails(w, http.StatusConflict, api.CodeBookingNotAllowed, ErrBookingNotAllowed.Error(),
			map[string]string{"reason": notAllowed.Reason})
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrIdempotencyConflict):
		api.WriteError(w, http.StatusConflict, api.CodeIdempotencyConflict, err.Error())
	case errors.Is(err, ErrIdempotencyKeyRequired):
		api.WriteError(w, http.StatusBadRequest, api.CodeIdempotencyKeyRequired, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		api.WriteError(w, http.StatusConflict, api.CodeInvalidStateTransition, err.Error())
	case errors.Is(err, pricing.ErrPriceUnavailable):
		api.WriteError(w, http.StatusUnprocessableEntity, api.CodePriceUnavailable, err.Error())
	default:
		log.Printf("booking request failed err=%v", err)
		api.WriteInternal(w)
	}
}
