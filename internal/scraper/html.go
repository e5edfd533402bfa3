package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"bibhub/internal/fetch"
	"bibhub/internal/logging"
	"bibhub/pkg/models"
)

// Item holds the raw field values of one listed record, keyed by field name.
type Item map[string]string

// HTMLSource walks the pages described by a Profile and extracts items.
type HTMLSource struct {
	Profile Profile
	Client  *fetch.Client
	Logger  zerolog.Logger
}

func NewHTMLSource(p Profile, client *fetch.Client) *HTMLSource {
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &HTMLSource{
		Profile: p,
		Client:  client,
		Logger:  logging.Component("scraper").With().Str("source", p.Name).Logger(),
	}
}

func (s *HTMLSource) Name() string { return s.Profile.Name }

// Items returns the items of every page, in page order. Pagination stops at
// the first empty page or after MaxPages. A failing first page is an error;
// a later failing page ends the listing.
func (s *HTMLSource) Items(ctx context.Context) ([]Item, error) {
	p := s.Profile
	items := make([]Item, 0)

	for page := p.FirstPage; page < p.FirstPage+p.MaxPages; page++ {
		doc, pageURL, err := s.fetchPage(ctx, page)
		if err != nil {
			if page == p.FirstPage || ctx.Err() != nil {
				return nil, err
			}
			s.Logger.Warn().Err(err).Int("page", page).Msg("page failed, ending listing")
			break
		}

		found, err := s.extract(ctx, doc, pageURL)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			break
		}
		items = append(items, found...)
		s.Logger.Debug().Int("page", page).Int("items", len(found)).Msg("page parsed")
	}
	return items, nil
}

func (s *HTMLSource) extract(ctx context.Context, doc *goquery.Document, pageURL *url.URL) ([]Item, error) {
	p := s.Profile
	out := make([]Item, 0)

	var err error
	doc.Find(p.Item).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		root, base := sel, pageURL
		link := ""
		if p.Detail != nil {
			link = fieldValue(sel, *p.Detail, pageURL)
			if link == "" {
				return true
			}
			detail, detailURL, derr := s.fetchDocument(ctx, link, nil)
			if derr != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
					return false
				}
				s.Logger.Warn().Err(derr).Str("url", link).Msg("detail page failed, skipping item")
				return true
			}
			root, base = detail.Selection, detailURL
		}

		item := make(Item, len(p.Fields)+1)
		for name, f := range p.Fields {
			item[name] = fieldValue(root, f, base)
		}
		if link != "" && item[FieldSourceURL] == "" {
			item[FieldSourceURL] = link
		}
		out = append(out, item)
		return true
	})
	return out, err
}

func (s *HTMLSource) fetchPage(ctx context.Context, page int) (*goquery.Document, *url.URL, error) {
	p := s.Profile
	n := strconv.Itoa(page)
	raw := strings.ReplaceAll(p.URL, "{page}", n)

	var form url.Values
	if p.Method == http.MethodPost {
		form = url.Values{}
		for k, v := range p.Form {
			form.Set(k, v)
		}
		if p.PageParam != "" {
			form.Set(p.PageParam, n)
		}
	} else if p.PageParam != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad url: %w", p.Name, err)
		}
		q := u.Query()
		q.Set(p.PageParam, n)
		u.RawQuery = q.Encode()
		raw = u.String()
	}
	return s.fetchDocument(ctx, raw, form)
}

// fetchDocument GETs raw, or POSTs form to it when form is non-nil.
func (s *HTMLSource) fetchDocument(ctx context.Context, raw string, form url.Values) (*goquery.Document, *url.URL, error) {
	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, raw, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: build request: %w", s.Profile.Name, err)
	}

	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Profile.Name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: parse html: %w", s.Profile.Name, err)
	}
	return doc, req.URL, nil
}

func fieldValue(root *goquery.Selection, f Field, base *url.URL) string {
	sel := root
	if f.Selector != "" {
		sel = root.Find(f.Selector).First()
	}
	if sel.Length() == 0 {
		return ""
	}

	var v string
	if f.Attr != "" {
		v, _ = sel.Attr(f.Attr)
	} else {
		v = sel.Text()
	}
	v = collapse(v)
	if f.TrimSuffix != "" {
		v = collapse(strings.TrimSuffix(v, f.TrimSuffix))
	}
	if f.Resolve && v != "" && base != nil {
		if ref, err := url.Parse(v); err == nil {
			v = base.ResolveReference(ref).String()
		}
	}
	return v
}

// location builds the postal address from the address fields present in it.
// Explicit street, town and zip_code win over the combined forms.
func (it Item) location() models.Location {
	var loc models.Location
	if a, ok := it[FieldAddress]; ok {
		loc = SplitAddress(a)
	}
	if zt, ok := it[FieldZipTown]; ok {
		loc.ZipCode, loc.Town = SplitZipTown(zt)
	}
	if v := it[FieldStreet]; v != "" {
		loc.Street = v
	}
	if v := it[FieldTown]; v != "" {
		loc.Town = v
	}
	if v := it[FieldZipCode]; v != "" {
		loc.ZipCode = v
	}
	return loc
}

// HTMLDirectory maps HTML items to directory records.
type HTMLDirectory struct {
	*HTMLSource
}

func NewHTMLDirectory(p Profile, client *fetch.Client) *HTMLDirectory {
	return &HTMLDirectory{HTMLSource: NewHTMLSource(p, client)}
}

func (s *HTMLDirectory) FetchAll(ctx context.Context) ([]models.DirectoryRecord, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.DirectoryRecord, 0, len(items))
	for _, it := range items {
		if it[FieldName] == "" {
			continue
		}
		out = append(out, models.DirectoryRecord{
			Name:     it[FieldName],
			Phone:    it[FieldPhone],
			Location: it.location(),
		})
	}
	return out, nil
}

// HTMLCertification maps HTML items to certification records.
type HTMLCertification struct {
	*HTMLSource
}

func NewHTMLCertification(p Profile, client *fetch.Client) *HTMLCertification {
	return &HTMLCertification{HTMLSource: NewHTMLSource(p, client)}
}

func (s *HTMLCertification) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Restaurant, 0, len(items))
	for _, it := range items {
		if it[FieldName] == "" {
			continue
		}
		price, cooking := ParsePrice(it[FieldPrice])
		if v := it[FieldCookingType]; v != "" {
			cooking = v
		}
		out = append(out, models.Restaurant{
			Name:        it[FieldName],
			Phone:       it[FieldPhone],
			Location:    it.location(),
			Distinction: ParseDistinction(it[FieldDistinction]),
			Price:       price,
			Rating:      ParseRating(it[FieldRating]),
			NumberVotes: ParseVotes(it[FieldVotes]),
			CookingType: cooking,
			ImageURL:    it[FieldImageURL],
			WebsiteURL:  it[FieldWebsiteURL],
			SourceURL:   it[FieldSourceURL],
		})
	}
	return out, nil
}

// NewFromProfile builds the HTML source matching the profile kind. Exactly one
// of the returned sources is non-nil.
func NewFromProfile(p Profile, client *fetch.Client) (CertificationSource, DirectorySource) {
	if p.Kind == KindCertification {
		return NewHTMLCertification(p, client), nil
	}
	return nil, NewHTMLDirectory(p, client)
}
