package query

import (
	"cmp"
	"math"
	"slices"

	"bibhub/pkg/models"
)

// Run filters corpus with req and sorts the result. The corpus is not
// modified and may be shared between concurrent callers.
//
// Ordering rule, shared by every sort and both directions: records with
// coordinates come before records without; within each group records are
// compared on the sort key, and equal keys keep their corpus order. Without a
// sort criterion the corpus order is kept.
func Run(corpus []models.Restaurant, req Request) ([]models.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f := req.Filter()
	out := make([]models.Restaurant, 0)
	for _, r := range corpus {
		if f.Match(r) {
			out = append(out, r)
		}
	}

	key, desc, ok := sortKey(req)
	if !ok {
		return out, nil
	}
	slices.SortStableFunc(out, func(a, b models.Restaurant) int {
		if c := coordinatesFirst(a, b); c != 0 {
			return c
		}
		c := cmp.Compare(key(a), key(b))
		if desc {
			c = -c
		}
		return c
	})
	return out, nil
}

func sortKey(req Request) (key func(models.Restaurant) float64, desc, ok bool) {
	switch req.Sort {
	case SortRatingAsc:
		return rating, false, true
	case SortRatingDesc:
		return rating, true, true
	case SortPriceAsc:
		return price, false, true
	case SortPriceDesc:
		return price, true, true
	case SortDistance:
		loc := *req.UserLocation
		return func(r models.Restaurant) float64 {
			d, ok := Distance(r, loc)
			if !ok {
				return math.Inf(1)
			}
			return d
		}, false, true
	}
	return nil, false, false
}

func rating(r models.Restaurant) float64 { return r.Rating }

func price(r models.Restaurant) float64 { return r.Price.Average() }

// coordinatesFirst orders a record with coordinates before one without.
func coordinatesFirst(a, b models.Restaurant) int {
	switch {
	case a.HasCoordinates() == b.HasCoordinates():
		return 0
	case a.HasCoordinates():
		return -1
	default:
		return 1
	}
}

// Distance is the Euclidean distance between r and loc in degrees. It is a
// ranking proxy, not a great-circle distance. ok is false when r has no
// coordinates.
func Distance(r models.Restaurant, loc LatLong) (d float64, ok bool) {
	if r.Coordinates == nil {
		return 0, false
	}
	dLat := r.Coordinates.Lat - loc.Lat
	dLon := r.Coordinates.Lon - loc.Long
	return math.Sqrt(dLat*dLat + dLon*dLon), true
}

// Cuisines lists the distinct cooking types of the records holding the given
// distinction, sorted. An empty distinction lists every cooking type.
func Cuisines(corpus []models.Restaurant, distinction string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range corpus {
		if distinction != "" && r.Distinction.Type != distinction {
			continue
		}
		if r.CookingType == "" {
			continue
		}
		if _, ok := seen[r.CookingType]; ok {
			continue
		}
		seen[r.CookingType] = struct{}{}
		out = append(out, r.CookingType)
	}
	slices.Sort(out)
	return out
}
