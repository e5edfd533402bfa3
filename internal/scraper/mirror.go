package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"bibhub/internal/fetch"
	"bibhub/pkg/models"
)

// Paths served by a source mirror (see cmd/bibhub mirror).
const (
	CertificationPath = "/certification"
	DirectoryPath     = "/directory"
)

// CertificationMirror reads certification records from a JSON endpoint
// serving the record shape of models.Restaurant.
//
//	GET {BaseURL}/certification
//	[{"name": "...", "phone": "...", "location": {...}, "distinction": {...}, ...}]
type CertificationMirror struct {
	BaseURL string
	Client  *fetch.Client
}

func NewCertificationMirror(baseURL string, client *fetch.Client) *CertificationMirror {
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &CertificationMirror{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (s *CertificationMirror) Name() string { return "certification-mirror" }

func (s *CertificationMirror) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	var raw []models.Restaurant
	if err := getJSON(ctx, s.Client, s.BaseURL+CertificationPath, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return cleanCertification(raw), nil
}

// DirectoryMirror reads directory records from a JSON endpoint.
//
//	GET {BaseURL}/directory
//	[{"name": "...", "phone": "...", "location": {"street": "...", "town": "...", "zipCode": "..."}}]
type DirectoryMirror struct {
	BaseURL string
	Client  *fetch.Client
}

func NewDirectoryMirror(baseURL string, client *fetch.Client) *DirectoryMirror {
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &DirectoryMirror{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (s *DirectoryMirror) Name() string { return "directory-mirror" }

func (s *DirectoryMirror) FetchAll(ctx context.Context) ([]models.DirectoryRecord, error) {
	var raw []models.DirectoryRecord
	if err := getJSON(ctx, s.Client, s.BaseURL+DirectoryPath, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return cleanDirectory(raw), nil
}

// CertificationFile reads certification records from a JSON file.
type CertificationFile struct {
	Path string
}

func (s CertificationFile) Name() string { return "certification-file" }

func (s CertificationFile) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	var raw []models.Restaurant
	if err := readJSON(s.Path, &raw); err != nil {
		return nil, err
	}
	return cleanCertification(raw), nil
}

// DirectoryFile reads directory records from a JSON file.
type DirectoryFile struct {
	Path string
}

func (s DirectoryFile) Name() string { return "directory-file" }

func (s DirectoryFile) FetchAll(ctx context.Context) ([]models.DirectoryRecord, error) {
	var raw []models.DirectoryRecord
	if err := readJSON(s.Path, &raw); err != nil {
		return nil, err
	}
	return cleanDirectory(raw), nil
}

func getJSON(ctx context.Context, client *fetch.Client, url string, v any) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// cleanCertification drops nameless records and resets the fields a source
// must not set: ids and coordinates belong to later pipeline stages.
func cleanCertification(raw []models.Restaurant) []models.Restaurant {
	out := make([]models.Restaurant, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		r.ID = 0
		r.Coordinates = nil
		if r.Distinction.Type == "" {
			r.Distinction.Type = models.DistinctionNone
		}
		out = append(out, r)
	}
	return out
}

func cleanDirectory(raw []models.DirectoryRecord) []models.DirectoryRecord {
	out := make([]models.DirectoryRecord, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
