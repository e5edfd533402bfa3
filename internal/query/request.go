// Package query filters and sorts the enriched corpus for the UI.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bibhub/pkg/models"
)

// Sort criteria.
const (
	SortRatingAsc  = "RATING_ASC"
	SortRatingDesc = "RATING_DESC"
	SortPriceAsc   = "PRICE_ASC"
	SortPriceDesc  = "PRICE_DESC"
	SortDistance   = "DISTANCE"
)

// AllCuisines is the cooking-type value meaning "no cuisine filter".
const AllCuisines = "Toutes cuisines"

// ErrInvalidRequest is matched by every request validation failure.
var ErrInvalidRequest = errors.New("invalid query request")

// LatLong is the user position, in degrees.
type LatLong struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Long float64 `json:"long" validate:"gte=-180,lte=180"`
}

// Request is a filter/sort query over the corpus.
type Request struct {
	Distinction  string   `json:"distinction" validate:"required,oneof=THREE_STARS TWO_STARS ONE_STAR BIB_GOURMAND NONE"`
	CookingType  string   `json:"cooking" validate:"max=100"`
	Query        string   `json:"query" validate:"max=200"`
	Sort         string   `json:"sorting" validate:"omitempty,oneof=RATING_ASC RATING_DESC PRICE_ASC PRICE_DESC DISTANCE"`
	UserLocation *LatLong `json:"userLocation,omitempty" validate:"required_if=Sort DISTANCE"`
}

// ValidationError reports the first invalid field of a Request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks r and returns a *ValidationError on the first problem.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldName(fe), Message: describe(fe)}
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Distinction":
		return "distinction"
	case "CookingType":
		return "cooking"
	case "Query":
		return "query"
	case "Sort":
		return "sorting"
	case "UserLocation":
		return "userLocation"
	case "Lat":
		return "userLocation.lat"
	case "Long":
		return "userLocation.long"
	}
	return strings.ToLower(fe.Field())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when sorting by distance"
	case "oneof":
		return fmt.Sprintf("%q is not one of %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return "is too long"
	case "gte", "lte":
		return fmt.Sprintf("%v is out of range", fe.Value())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

// Filter is the categorical part of a Request. Stores may use it to narrow
// what they read before the engine runs.
type Filter struct {
	Distinction string
	CookingType string
	Query       string
}

func (r Request) Filter() Filter {
	return Filter{Distinction: r.Distinction, CookingType: r.CookingType, Query: r.Query}
}

// AnyCuisine reports whether the filter accepts every cooking type.
func (f Filter) AnyCuisine() bool {
	return f.CookingType == "" || f.CookingType == AllCuisines
}

// Match reports whether r passes the filter: exact distinction, exact
// cooking type unless AnyCuisine, case-insensitive substring of the name.
func (f Filter) Match(r models.Restaurant) bool {
	if r.Distinction.Type != f.Distinction {
		return false
	}
	if !f.AnyCuisine() && r.CookingType != f.CookingType {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
