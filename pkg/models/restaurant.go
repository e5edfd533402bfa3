package models

// Distinction types awarded by the certification source.
const (
	DistinctionThreeStars  = "THREE_STARS"
	DistinctionTwoStars    = "TWO_STARS"
	DistinctionOneStar     = "ONE_STAR"
	DistinctionBibGourmand = "BIB_GOURMAND"
	DistinctionNone        = "NONE"
)

// Distinctions lists every distinction type a query may filter on.
var Distinctions = []string{
	DistinctionThreeStars,
	DistinctionTwoStars,
	DistinctionOneStar,
	DistinctionBibGourmand,
	DistinctionNone,
}

// Location is the postal address as scraped, before any normalization.
type Location struct {
	Street  string `json:"street"`
	Town    string `json:"town"`
	ZipCode string `json:"zipCode"`
}

type Distinction struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Price is the menu price range in euros.
type Price struct {
	Bottom int `json:"bottom"`
	Top    int `json:"top"`
}

// Average is the value used by the price sorts.
func (p Price) Average() float64 {
	return float64(p.Bottom+p.Top) / 2
}

// Coordinates is a geocoded WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Restaurant is the canonical record of the certification source.
//
// The same struct carries the record through the whole pipeline:
//   - as scraped, ID is 0 and Coordinates is nil;
//   - once golden, ID holds the sequential id assigned by the matcher;
//   - once enriched, Coordinates holds the geocoded point, or stays nil
//     when the lookup failed or returned nothing.
//
// IDs are only stable within one pipeline run.
type Restaurant struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Phone       string       `json:"phone"`
	Location    Location     `json:"location"`
	Distinction Distinction  `json:"distinction"`
	Price       Price        `json:"price"`
	Rating      float64      `json:"rating"`
	NumberVotes int          `json:"numberVotes"`
	CookingType string       `json:"cookingType"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	WebsiteURL  string       `json:"websiteUrl,omitempty"`
	SourceURL   string       `json:"sourceUrl,omitempty"`
	Coordinates *Coordinates `json:"coordinates"`
}

// HasCoordinates reports whether the record was successfully geocoded.
func (r Restaurant) HasCoordinates() bool {
	return r.Coordinates != nil
}
