package tourpackage

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func ptr(s string) *string { return &s }

func TestValidatePrices(t *testing.T) {
	peak := ptr("6b1c3a52-4a0e-4a44-9d55-2b2f5c7e0c11")

	cases := []struct {
		name   string
		prices []PriceInput
		code   string
	}{
		{"empty table is allowed", nil, ""},
		{"fallback and seasonal for same vehicle", []PriceInput{
			{VehicleType: "sedan", Price: decimal.RequireFromString("2500")},
			{VehicleType: "sedan", SeasonID: peak, Price: decimal.RequireFromString("3200.50")},
		}, ""},
		{"zero price", []PriceInput{{VehicleType: "sedan", Price: decimal.Zero}}, "PRICE_INVALID"},
		{"three decimals", []PriceInput{{VehicleType: "sedan", Price: decimal.RequireFromString("10.005")}}, "PRICE_SCALE_INVALID"},
		{"duplicate fallback", []PriceInput{
			{VehicleType: "suv", Price: decimal.RequireFromString("1")},
			{VehicleType: "suv", Price: decimal.RequireFromString("2")},
		}, "PRICE_DUPLICATE"},
		{"duplicate seasonal", []PriceInput{
			{VehicleType: "suv", SeasonID: peak, Price: decimal.RequireFromString("1")},
			{VehicleType: "suv", SeasonID: ptr(*peak), Price: decimal.RequireFromString("2")},
		}, "PRICE_DUPLICATE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePrices(tc.prices)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) || ve.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestValidateInput_NegativeMeasures(t *testing.T) {
	in := Input{DurationHours: decimal.RequireFromString("-1")}
	if err := ValidateInput(in); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPutPrices_RejectsBadTableBeforeStorage(t *testing.T) {
	rr := httptest.NewRecorder()
	body := `{"prices":[{"vehicleType":"sedan","price":"0"}]}`
	Handlers{}.PutPrices(rr, httptest.NewRequest(http.MethodPut, "/v1/admin/packages/x/prices", strings.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "price must be") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestPublicList_RejectsUnknownKind(t *testing.T) {
	rr := httptest.NewRecorder()
	Handlers{}.PublicList(rr, httptest.NewRequest(http.MethodGet, "/v1/packages?kind=cruise", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
