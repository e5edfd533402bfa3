// Package geocode enriches golden records with coordinates through an
// external geocoding provider, one throttled request at a time.
package geocode

import (
	"context"
	"errors"
	"strings"

	"bibhub/pkg/models"
)

// ErrLookupFailed marks a per-record geocoding failure. It never aborts a
// batch; the record is kept without coordinates.
var ErrLookupFailed = errors.New("geocode lookup failed")

// Result is one candidate returned by a provider.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Provider resolves a free-text address. An empty slice with a nil error
// means the provider found nothing.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// AddressQuery builds the provider query for loc: street, town and zip code,
// then the country, skipping empty parts.
func AddressQuery(loc models.Location, country string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{loc.Street, loc.Town, loc.ZipCode, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
