package wizard

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxibooking/internal/api"
	"taxibooking/internal/booking"
)

type Handlers struct {
	Service *Service
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.New(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, d)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

func (h Handlers) SaveStep(w http.ResponseWriter, r *http.Request) {
	step, err := ParseStep(chi.URLParam(r, "step"))
	if err != nil || step == StepReview {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "step must be trip, schedule or traveller")
		return
	}

	var payload any
	switch step {
	case StepTrip:
		var p TripData
		if !api.Decode(w, r, &p) {
			return
		}
		payload = p
	case StepSchedule:
		var p ScheduleData
		if !api.Decode(w, r, &p) {
			return
		}
		payload = p
	case StepTraveller:
		var p TravellerData
		if !api.Decode(w, r, &p) {
			return
		}
		payload = p
	}

	d, err := h.Service.SaveStep(r.Context(), chi.URLParam(r, "id"), step, payload)
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

func (h Handlers) Back(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

type SubmitResponse struct {
	Draft   Draft              `json:"draft"`
	Booking booking.PublicView `json:"booking"`
}

func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	b, d, err := h.Service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, SubmitResponse{Draft: d, Booking: b.Public()})
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, ErrDraftExpired):
		api.WriteError(w, http.StatusGone, api.CodeDraftExpired, err.Error())
	case errors.Is(err, ErrStepIncomplete):
		api.WriteError(w, http.StatusConflict, api.CodeStepIncomplete, err.Error())
	case errors.Is(err, ErrDraftSubmitted):
		api.WriteError(w, http.StatusConflict, api.CodeConflict, err.Error())
	case errors.Is(err, ErrUnknownStep):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
	default:
		// Pricing and availability failures surface the same way as direct bookings.
		booking.WriteError(w, err)
	}
}
