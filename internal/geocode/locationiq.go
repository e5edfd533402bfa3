package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bibhub/internal/fetch"
)

const DefaultLocationIQBaseURL = "https://us1.locationiq.com"

// LocationIQ queries the LocationIQ forward geocoding endpoint.
type LocationIQ struct {
	BaseURL string
	APIKey  string
	Client  *fetch.Client
}

func NewLocationIQ(baseURL, apiKey string, client *fetch.Client) *LocationIQ {
	if baseURL == "" {
		baseURL = DefaultLocationIQBaseURL
	}
	if client == nil {
		client = fetch.NewClient(fetch.DefaultTimeout)
	}
	return &LocationIQ{BaseURL: baseURL, APIKey: apiKey, Client: client}
}

func (l *LocationIQ) Name() string { return "locationiq" }

type liqPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns the places LocationIQ found for query. A 404 "Unable to
// geocode" answer is reported as zero results.
func (l *LocationIQ) Search(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(l.BaseURL + "/v1/search.php")
	if err != nil {
		return nil, fmt.Errorf("locationiq: base url: %w", err)
	}
	q := u.Query()
	q.Set("key", l.APIKey)
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	resp, err := l.Client.Get(ctx, u.String())
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			return []Result{}, nil
		}
		return nil, err
	}

	var places []liqPlace
	if err := json.Unmarshal(resp.Body, &places); err != nil {
		return nil, fmt.Errorf("locationiq: decode: %w", err)
	}

	out := make([]Result, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("locationiq: lat %q: %w", p.Lat, err)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("locationiq: lon %q: %w", p.Lon, err)
		}
		out = append(out, Result{Lat: lat, Lon: lon, DisplayName: p.DisplayName})
	}
	return out, nil
}
