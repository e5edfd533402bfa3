package scraper

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Profile kinds.
const (
	KindCertification = "certification"
	KindDirectory     = "directory"
)

// Field names understood by the HTML sources.
const (
	FieldName        = "name"
	FieldPhone       = "phone"
	FieldStreet      = "street"
	FieldTown        = "town"
	FieldZipCode     = "zip_code"
	FieldZipTown     = "zip_town"
	FieldAddress     = "address"
	FieldDistinction = "distinction"
	FieldPrice       = "price"
	FieldCookingType = "cooking_type"
	FieldRating      = "rating"
	FieldVotes       = "votes"
	FieldImageURL    = "image_url"
	FieldWebsiteURL  = "website_url"
	FieldSourceURL   = "source_url"
)

// defaultMaxPages bounds pagination when a profile does not.
const defaultMaxPages = 500

// Profile describes how to read one HTML listing: where the pages are, which
// element is a record and where each field sits inside it. Site structure
// lives in profile files, never in code.
//
//	name: maitres
//	kind: directory
//	url: https://example.org/annuaire/ajax/loadresult
//	method: POST
//	form: {annuaire_mode: standard}
//	page_param: page
//	item: div.annuaire_single
//	fields:
//	  name: {selector: .single_libel a, trim_suffix: " ("}
//	  zip_town: {selector: .single_info3 .town}
type Profile struct {
	Name      string            `yaml:"name" validate:"required"`
	Kind      string            `yaml:"kind" validate:"required,oneof=certification directory"`
	URL       string            `yaml:"url" validate:"required,url"`
	Method    string            `yaml:"method" validate:"omitempty,oneof=GET POST"`
	Form      map[string]string `yaml:"form"`
	PageParam string            `yaml:"page_param"`
	FirstPage int               `yaml:"first_page" validate:"gte=0"`
	MaxPages  int               `yaml:"max_pages" validate:"gte=0"`
	Item      string            `yaml:"item" validate:"required"`
	// Detail, when set, locates a link inside each item; fields are then
	// read from the linked page instead of the item.
	Detail *Field           `yaml:"detail"`
	Fields map[string]Field `yaml:"fields" validate:"required,min=1"`
}

// Field locates one value relative to an item.
type Field struct {
	// Selector is relative to the item; empty means the item itself.
	Selector string `yaml:"selector"`
	// Attr reads an attribute instead of the text content.
	Attr string `yaml:"attr"`
	// TrimSuffix is cut from the end of the value.
	TrimSuffix string `yaml:"trim_suffix"`
	// Resolve makes a relative URL absolute against the page URL.
	Resolve bool `yaml:"resolve"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadProfile reads and validates a YAML profile file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes a YAML profile and applies defaults.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}

	p.Method = strings.ToUpper(p.Method)
	if p.Method == "" {
		p.Method = "GET"
	}
	if p.FirstPage == 0 {
		p.FirstPage = 1
	}
	if p.MaxPages == 0 {
		p.MaxPages = defaultMaxPages
	}
	if !p.Paginated() {
		p.MaxPages = 1
	}

	if err := validate.Struct(p); err != nil {
		return Profile{}, fmt.Errorf("invalid profile: %w", err)
	}
	if _, ok := p.Fields[FieldName]; !ok {
		return Profile{}, fmt.Errorf("invalid profile: field %q is required", FieldName)
	}
	return p, nil
}

// Paginated reports whether the profile walks several pages.
func (p Profile) Paginated() bool {
	return p.PageParam != "" || strings.Contains(p.URL, "{page}")
}
