package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// HardDelete reports whether a DELETE asked for a hard delete with ?hard=true.
func HardDelete(r *http.Request) bool {
	return QueryBool(r, "hard")
}

func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}

// QueryOptionalBool returns nil when key is absent and an error when it is not a boolean.
func QueryOptionalBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &v, nil
}

func QueryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return fallback
	}
	return v
}
