// Package scraper fetches the raw records of the two reconciled sources: the
// certification guide and the quality directory.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"bibhub/internal/logging"
	"bibhub/pkg/models"
)

// ErrSourceUnavailable wraps every failure of a single source.
var ErrSourceUnavailable = errors.New("source unavailable")

// CertificationSource returns the records of the certification guide, in
// listing order.
type CertificationSource interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.Restaurant, error)
}

// DirectorySource returns the records of the quality directory, in listing
// order.
type DirectorySource interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.DirectoryRecord, error)
}

// Aggregator calls every configured source of one kind and concatenates their
// records. A failing source is logged and contributes nothing.
type Aggregator struct {
	Certification []CertificationSource
	Directory     []DirectorySource
	Logger        zerolog.Logger
}

func NewAggregator(cert []CertificationSource, dir []DirectorySource) *Aggregator {
	return &Aggregator{
		Certification: cert,
		Directory:     dir,
		Logger:        logging.Component("scraper"),
	}
}

// FetchCertification returns the records of every certification source.
// Records sharing a source URL are merged into the first one seen. The only
// error returned is ctx's.
func (a *Aggregator) FetchCertification(ctx context.Context) ([]models.Restaurant, error) {
	out := make([]models.Restaurant, 0)
	byURL := make(map[string]int)

	for _, src := range a.Certification {
		a.Logger.Info().Str("source", src.Name()).Msg("fetching certification records")
		records, err := src.FetchAll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.Logger.Warn().Err(unavailable(src.Name(), err)).Msg("skipping certification source")
			continue
		}

		for _, r := range records {
			if r.SourceURL == "" {
				out = append(out, r)
				continue
			}
			if i, ok := byURL[r.SourceURL]; ok {
				out[i] = mergeRestaurant(out[i], r)
				continue
			}
			byURL[r.SourceURL] = len(out)
			out = append(out, r)
		}
		a.Logger.Info().Str("source", src.Name()).Int("records", len(records)).Msg("certification source done")
	}
	return out, nil
}

// FetchDirectory returns the records of every directory source. Exact
// duplicates are kept once. The only error returned is ctx's.
func (a *Aggregator) FetchDirectory(ctx context.Context) ([]models.DirectoryRecord, error) {
	out := make([]models.DirectoryRecord, 0)
	seen := make(map[models.DirectoryRecord]struct{})

	for _, src := range a.Directory {
		a.Logger.Info().Str("source", src.Name()).Msg("fetching directory records")
		records, err := src.FetchAll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.Logger.Warn().Err(unavailable(src.Name(), err)).Msg("skipping directory source")
			continue
		}

		for _, r := range records {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
		a.Logger.Info().Str("source", src.Name()).Int("records", len(records)).Msg("directory source done")
	}
	return out, nil
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err)
}

// mergeRestaurant fills the empty fields of base from incoming. Non-empty
// fields of base always win.
func mergeRestaurant(base, incoming models.Restaurant) models.Restaurant {
	if base.Name == "" {
		base.Name = incoming.Name
	}
	if base.Phone == "" {
		base.Phone = incoming.Phone
	}
	if base.Location == (models.Location{}) {
		base.Location = incoming.Location
	}
	if base.Distinction.Type == "" || base.Distinction.Type == models.DistinctionNone {
		if incoming.Distinction.Type != "" {
			base.Distinction = incoming.Distinction
		}
	}
	if base.Price == (models.Price{}) {
		base.Price = incoming.Price
	}
	if incoming.NumberVotes > base.NumberVotes {
		base.Rating = incoming.Rating
		base.NumberVotes = incoming.NumberVotes
	}
	if base.CookingType == "" {
		base.CookingType = incoming.CookingType
	}
	if base.ImageURL == "" {
		base.ImageURL = incoming.ImageURL
	}
	if base.WebsiteURL == "" {
		base.WebsiteURL = incoming.WebsiteURL
	}
	return base
}
