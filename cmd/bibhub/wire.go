package main

import (
	"context"
	"fmt"

	"bibhub/internal/config"
	"bibhub/internal/fetch"
	"bibhub/internal/geocode"
	"bibhub/internal/matcher"
	"bibhub/internal/pipeline"
	"bibhub/internal/scraper"
	"bibhub/internal/store"
)

func openStore(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	b, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driverName(cfg.DB.Driver), err)
	}
	return b, nil
}

func driverName(d string) string {
	if d == "" {
		return store.DriverSQLite
	}
	return d
}

// buildSources turns every configured location into a source. A profile
// may serve either kind; its Kind decides which.
func buildSources(cfg config.SourcesConfig) (*scraper.Aggregator, error) {
	client := fetch.NewClient(cfg.Timeout)
	var certs []scraper.CertificationSource
	var dirs []scraper.DirectorySource

	c := cfg.Certification
	if c.URL != "" {
		certs = append(certs, scraper.NewCertificationMirror(c.URL, client))
	}
	if c.File != "" {
		certs = append(certs, scraper.CertificationFile{Path: c.File})
	}
	if c.Profile != "" {
		cert, _, err := profileSource(c.Profile, client)
		if err != nil {
			return nil, err
		}
		if cert == nil {
			return nil, fmt.Errorf("profile %s does not describe a certification source", c.Profile)
		}
		certs = append(certs, cert)
	}

	d := cfg.Directory
	if d.URL != "" {
		dirs = append(dirs, scraper.NewDirectoryMirror(d.URL, client))
	}
	if d.File != "" {
		dirs = append(dirs, scraper.DirectoryFile{Path: d.File})
	}
	if d.Profile != "" {
		_, dir, err := profileSource(d.Profile, client)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			return nil, fmt.Errorf("profile %s does not describe a directory source", d.Profile)
		}
		dirs = append(dirs, dir)
	}

	if len(certs) == 0 || len(dirs) == 0 {
		return nil, fmt.Errorf("both sources must be configured (sources.certification.* and sources.directory.*)")
	}
	return scraper.NewAggregator(certs, dirs), nil
}

func profileSource(path string, client *fetch.Client) (scraper.CertificationSource, scraper.DirectorySource, error) {
	p, err := scraper.LoadProfile(path)
	if err != nil {
		return nil, nil, err
	}
	cert, dir := scraper.NewFromProfile(p, client)
	return cert, dir, nil
}

// buildGeocoder returns nil when no API key is configured; records are then
// stored without coordinates.
func buildGeocoder(cfg config.GeocodeConfig) pipeline.Geocoder {
	if cfg.APIKey == "" {
		return nil
	}
	provider := geocode.NewLocationIQ(cfg.BaseURL, cfg.APIKey, fetch.NewClient(cfg.Timeout))
	e := geocode.NewEnricher(provider, geocode.NewThrottle(cfg.Interval))
	if cfg.Country != "" {
		e.Country = cfg.Country
	}
	e.Retries = cfg.Retries
	return e
}

func buildRunner(cfg *config.Config, b store.Backend, pub pipeline.Publisher) (*pipeline.Runner, error) {
	sources, err := buildSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(sources, matcher.New(cfg.Match), buildGeocoder(cfg.Geocode), b)
	r.Runs = b
	r.SourceTimeout = cfg.Sources.FetchTimeout
	if pub != nil {
		r.Events = pub
	}
	return r, nil
}
