package geocode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bibhub/internal/fetch"
	"bibhub/internal/logging"
	"bibhub/pkg/models"
)

// DefaultCountry is appended to every address query.
const DefaultCountry = "France"

// Stats summarizes one enrichment batch.
type Stats struct {
	Requested int `json:"requested"`
	Geocoded  int `json:"geocoded"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
}

// Enricher geocodes records sequentially. It must not be shared by two
// concurrent batches.
type Enricher struct {
	Provider Provider
	Throttle *Throttle
	Country  string
	// Retries is the number of extra attempts after a retryable error. Zero
	// means one lookup per record.
	Retries int
	Logger  zerolog.Logger
}

func NewEnricher(p Provider, t *Throttle) *Enricher {
	if t == nil {
		t = NewThrottle(DefaultInterval)
	}
	return &Enricher{
		Provider: p,
		Throttle: t,
		Country:  DefaultCountry,
		Logger:   logging.Component("geocode"),
	}
}

// Enrich returns a copy of records with Coordinates filled from the first
// provider result. Records the provider cannot resolve keep nil coordinates.
// The output always has the same length and order as the input.
//
// The only error returned is ctx's: when ctx is done the remaining records
// are returned without coordinates.
func (e *Enricher) Enrich(ctx context.Context, records []models.Restaurant) ([]models.Restaurant, Stats, error) {
	out := make([]models.Restaurant, len(records))
	copy(out, records)

	var stats Stats
	for i := range out {
		if err := ctx.Err(); err != nil {
			stats.Missing += len(out) - i
			return out, stats, err
		}

		stats.Requested++
		query := AddressQuery(out[i].Location, e.Country)
		point, err := e.lookup(ctx, query)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				stats.Missing += len(out) - i
				return out, stats, ctx.Err()
			}
			stats.Failed++
			e.Logger.Warn().Err(err).Int("id", out[i].ID).Str("query", query).Msg("geocode failed, keeping record without coordinates")
		case point == nil:
			stats.Missing++
			e.Logger.Debug().Int("id", out[i].ID).Str("query", query).Msg("no geocode result")
		default:
			stats.Geocoded++
		}
		out[i].Coordinates = point
	}

	e.Logger.Info().
		Int("requested", stats.Requested).
		Int("geocoded", stats.Geocoded).
		Int("missing", stats.Missing).
		Int("failed", stats.Failed).
		Msg("geocoding finished")
	return out, stats, nil
}

func (e *Enricher) lookup(ctx context.Context, query string) (*models.Coordinates, error) {
	var lastErr error
	for attempt := 0; attempt <= e.Retries; attempt++ {
		if err := e.Throttle.Acquire(ctx); err != nil {
			return nil, err
		}
		results, err := e.Provider.Search(ctx, query)
		e.Throttle.Release()

		if err == nil {
			if len(results) == 0 {
				return nil, nil
			}
			return &models.Coordinates{Lat: results[0].Lat, Lon: results[0].Lon}, nil
		}
		lastErr = err
		if !fetch.IsRetryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrLookupFailed, e.Provider.Name(), lastErr)
}
