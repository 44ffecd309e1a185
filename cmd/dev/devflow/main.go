package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taxibooking/internal/route"
	"taxibooking/internal/settings"
	"taxibooking/pkg/config"
	"taxibooking/pkg/db"
)

// devflow seeds a route with a rate, books it once through the running API and prints the
// resulting availability for the travel date.
func main() {
	var (
		apiURL  = flag.String("api", "", "api base url (defaults to http://localhost<HTTP_ADDR>)")
		slug    = flag.String("route", "madurai-rameswaram", "route slug to seed")
		vehicle = flag.String("vehicle", "sedan", "vehicle type slug")
		price   = flag.String("price", "4500.00", "route rate for the vehicle")
		fleet   = flag.Int("fleet", 3, "fleet size to configure")
		date    = flag.String("date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "travel date")
	)
	flag.Parse()

	cfg := config.Load()
	if *apiURL == "" {
		*apiURL = defaultBaseURL(cfg.HTTPAddr)
	}
	rate, err := decimal.NewFromString(*price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -price: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	if err := settings.NewRepository(pool).Save(ctx, map[string]string{settings.KeyFleetSize: strconv.Itoa(*fleet)}); err != nil {
		fmt.Fprintf(os.Stderr, "set fleet size: %v\n", err)
		os.Exit(1)
	}

	routes := route.NewRepository(pool)
	rt, err := routes.Create(ctx, route.Input{Slug: *slug, Origin: "Madurai", Destination: "Rameswaram"})
	if errors.Is(err, route.ErrSlugTaken) {
		rt, err = routes.GetActiveBySlug(ctx, *slug)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed route: %v\n", err)
		os.Exit(1)
	}
	if err := routes.ReplaceRates(ctx, rt.ID, []route.Rate{{VehicleType: *vehicle, Price: rate}}); err != nil {
		fmt.Fprintf(os.Stderr, "seed rate: %v\n", err)
		os.Exit(1)
	}

	payload, _ := json.Marshal(map[string]any{
		"routeId":        rt.ID,
		"vehicleType":    *vehicle,
		"travelDate":     *date,
		"pickupTime":     "06:30",
		"pickupLocation": "Madurai Junction",
		"passengers":     2,
		"customerName":   "Dev Flow",
		"customerPhone":  "9000000000",
	})
	key := "devflow-" + uuid.NewString()
	status, body, err := do(http.MethodPost, *apiURL+"/v1/bookings", key, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post booking: %v\n", err)
		fmt.Fprintf(os.Stderr, "tip: is the API running, and is HTTP_ADDR set correctly? api=%s\n", *apiURL)
		os.Exit(1)
	}
	if status < 200 || status >= 300 {
		fmt.Fprintf(os.Stderr, "booking status=%d body=%s\n", status, body)
		os.Exit(1)
	}

	_, day, err := do(http.MethodGet, *apiURL+"/v1/availability/"+*date, "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get availability: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seed complete.\n")
	fmt.Printf("route_id=%s slug=%s vehicle=%s rate=%s fleet=%d\n", rt.ID, rt.Slug, *vehicle, rate.StringFixed(2), *fleet)
	fmt.Printf("booking (idempotency_key=%s):\n%s\n", key, body)
	fmt.Printf("availability %s:\n%s\n", *date, day)

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("- Oversell check: go run ./cmd/dev/simbooking -payload booking.json -n %d\n", *fleet+2)
	fmt.Printf("- Confirm it (dev admin header):\n")
	fmt.Printf("  PATCH %s/v1/admin/bookings/{id}/status {\"status\":\"confirmed\"} with X-Admin-Password\n", *apiURL)
}

func do(method, url, key string, body []byte) (int, string, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(b)), nil
}

func defaultBaseURL(httpAddr string) string {
	// httpAddr is typically ":8081" or "0.0.0.0:8081".
	addr := strings.TrimSpace(httpAddr)
	if addr == "" {
		addr = ":8081"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}
