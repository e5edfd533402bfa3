package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"bibhub/pkg/models"
)

// separator between a label and its detail in guide listings,
// e.g. "Bib Gourmand • Bonnes petites tables".
const separator = "•"

var (
	intPattern   = regexp.MustCompile(`\d+`)
	floatPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	spaces       = regexp.MustCompile(`\s+`)
)

var distinctionLabels = map[string]string{
	"trois étoiles": models.DistinctionThreeStars,
	"3 étoiles":     models.DistinctionThreeStars,
	"three stars":   models.DistinctionThreeStars,
	"deux étoiles":  models.DistinctionTwoStars,
	"2 étoiles":     models.DistinctionTwoStars,
	"two stars":     models.DistinctionTwoStars,
	"une étoile":    models.DistinctionOneStar,
	"1 étoile":      models.DistinctionOneStar,
	"one star":      models.DistinctionOneStar,
	"bib gourmand":  models.DistinctionBibGourmand,
}

// ParseDistinction maps a guide label such as "Deux étoiles • Cuisine
// remarquable" to a distinction. Known type names are accepted as is. An empty
// label is NONE; any other unknown label is BIB_GOURMAND, the only remaining
// award of the guide.
func ParseDistinction(label string) models.Distinction {
	kind, desc, _ := strings.Cut(label, separator)
	kind = collapse(kind)
	desc = collapse(desc)

	if kind == "" {
		return models.Distinction{Type: models.DistinctionNone, Description: desc}
	}
	for _, d := range models.Distinctions {
		if strings.EqualFold(kind, d) {
			return models.Distinction{Type: d, Description: desc}
		}
	}
	if t, ok := distinctionLabels[strings.ToLower(kind)]; ok {
		return models.Distinction{Type: t, Description: desc}
	}
	return models.Distinction{Type: models.DistinctionBibGourmand, Description: desc}
}

// ParsePrice reads "25 - 45 EUR • Cuisine moderne" into a price range and the
// cooking type following the separator. A single amount is both bounds.
func ParsePrice(text string) (models.Price, string) {
	priceText, cooking, _ := strings.Cut(text, separator)

	var p models.Price
	nums := intPattern.FindAllString(priceText, 2)
	if len(nums) > 0 {
		p.Bottom, _ = strconv.Atoi(nums[0])
		p.Top = p.Bottom
	}
	if len(nums) > 1 {
		p.Top, _ = strconv.Atoi(nums[1])
	}
	return p, collapse(cooking)
}

// ParseRating returns the first decimal number of text, accepting a comma as
// decimal separator. Zero when there is none.
func ParseRating(text string) float64 {
	m := floatPattern.FindString(text)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseVotes returns the first integer of text, e.g. "128 avis".
func ParseVotes(text string) int {
	n, err := strconv.Atoi(intPattern.FindString(strings.ReplaceAll(text, " ", "")))
	if err != nil {
		return 0
	}
	return n
}

// SplitZipTown splits "75001 PARIS" into zip code and town.
func SplitZipTown(text string) (zip, town string) {
	zip, town, _ = strings.Cut(collapse(text), " ")
	return zip, town
}

// SplitAddress splits "1 rue A, Paris, 75001, France" into street, town and
// zip code. Missing parts are empty.
func SplitAddress(text string) models.Location {
	parts := strings.Split(text, ",")
	part := func(i int) string {
		if i < len(parts) {
			return collapse(parts[i])
		}
		return ""
	}
	return models.Location{Street: part(0), Town: part(1), ZipCode: part(2)}
}

// collapse trims s and folds inner whitespace runs into one space.
func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
