package pricing

import (
	"errors"
	"log"
	"net/http"

	"taxibooking/internal/api"
	"taxibooking/internal/civil"
)

type Handlers struct {
	Service *Service
}

type QuoteRequest struct {
	PackageID   string `json:"packageId" validate:"required_without=RouteID,excluded_with=RouteID,omitempty,uuid"`
	RouteID     string `json:"routeId" validate:"omitempty,uuid"`
	VehicleType string `json:"vehicleType" validate:"required,slug"`
	Date        string `json:"date" validate:"required,isodate"`
}

func (q QuoteRequest) Trip() Trip {
	d, _ := civil.Parse(q.Date)
	return Trip{PackageID: q.PackageID, RouteID: q.RouteID, VehicleType: q.VehicleType, Date: d}
}

func (h Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !api.Decode(w, r, &req) {
		return
	}
	q, err := h.Service.Quote(r.Context(), req.Trip())
	if errors.Is(err, ErrPriceUnavailable) {
		api.WriteError(w, http.StatusUnprocessableEntity, api.CodePriceUnavailable, err.Error())
		return
	}
	if err != nil {
		log.Printf("quote failed vehicle=%s date=%s err=%v", req.VehicleType, req.Date, err)
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, q)
}
