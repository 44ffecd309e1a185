package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// simbooking posts the same booking payload n times in parallel, by default each with its own
// Idempotency-Key, so overselling a date can be checked by hand.
func main() {
	var (
		url     = flag.String("url", "", "booking endpoint url (defaults to http://localhost<HTTP_ADDR>/v1/bookings)")
		payload = flag.String("payload", "", "path to json payload file")
		n       = flag.Int("n", 1, "number of concurrent requests")
		key     = flag.String("key", "", "idempotency key shared by every request (default: one random key per request)")
	)
	flag.Parse()

	if *url == "" {
		*url = defaultURL(os.Getenv("HTTP_ADDR"))
	}
	if *payload == "" {
		fmt.Fprintln(os.Stderr, "missing -payload")
		os.Exit(2)
	}
	b, err := os.ReadFile(*payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read payload: %v\n", err)
		os.Exit(2)
	}

	c := &http.Client{Timeout: 10 * time.Second}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < *n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := *key
			if k == "" {
				k = uuid.NewString()
			}
			status, body, err := post(c, *url, k, b)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(os.Stderr, "request=%d key=%s err=%v\n", i, k, err)
				return
			}
			fmt.Printf("request=%d key=%s status=%d\n%s\n", i, k, status, strings.TrimSpace(body))
		}(i)
	}
	wg.Wait()
}

func post(c *http.Client, url, key string, body []byte) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(out), nil
}

func defaultURL(httpAddr string) string {
	if httpAddr == "" {
		httpAddr = ":8081"
	}
	if httpAddr[0] == ':' {
		return "http://localhost" + httpAddr + "/v1/bookings"
	}
	return "http://localhost:8081/v1/bookings"
}
