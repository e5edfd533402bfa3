package store

import (
	"encoding/csv"
	"io"
	"strconv"

	"bibhub/pkg/models"
)

var csvHeader = []string{
	"id", "name", "phone", "street", "town", "zip_code", "distinction", "distinction_description",
	"price_bottom", "price_top", "rating", "number_votes", "cooking_type", "image_url", "website_url",
	"source_url", "lat", "lon",
}

// WriteCSV writes records with a header row. Missing coordinates are empty
// cells.
func WriteCSV(w io.Writer, records []models.Restaurant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		lat, lon := "", ""
		if r.Coordinates != nil {
			lat = strconv.FormatFloat(r.Coordinates.Lat, 'f', -1, 64)
			lon = strconv.FormatFloat(r.Coordinates.Lon, 'f', -1, 64)
		}
		if err := cw.Write([]string{
			strconv.Itoa(r.ID),
			r.Name,
			r.Phone,
			r.Location.Street,
			r.Location.Town,
			r.Location.ZipCode,
			r.Distinction.Type,
			r.Distinction.Description,
			strconv.Itoa(r.Price.Bottom),
			strconv.Itoa(r.Price.Top),
			strconv.FormatFloat(r.Rating, 'f', -1, 64),
			strconv.Itoa(r.NumberVotes),
			r.CookingType,
			r.ImageURL,
			r.WebsiteURL,
			r.SourceURL,
			lat,
			lon,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
