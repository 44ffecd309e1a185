package testutil

import "taxibooking/internal/civil"

// Date parses a YYYY-MM-DD literal and panics on a malformed one.
func Date(s string) civil.Date {
	d, err := civil.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}
