package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row rowScanner) (models.Restaurant, error) {
	var (
		r        models.Restaurant
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Phone,
		&r.Location.Street, &r.Location.Town, &r.Location.ZipCode,
		&r.Distinction.Type, &r.Distinction.Description,
		&r.Price.Bottom, &r.Price.Top, &r.Rating, &r.NumberVotes,
		&r.CookingType, &r.ImageURL, &r.WebsiteURL, &r.SourceURL,
		&lat, &lon,
	); err != nil {
		return models.Restaurant{}, err
	}
	if lat.Valid && lon.Valid {
		r.Coordinates = &models.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
	}
	return r, nil
}

func insertArgs(r models.Restaurant) []any {
	var lat, lon *float64
	if r.Coordinates != nil {
		lat, lon = &r.Coordinates.Lat, &r.Coordinates.Lon
	}
	return []any{
		r.ID, r.Name, r.Phone,
		r.Location.Street, r.Location.Town, r.Location.ZipCode,
		r.Distinction.Type, r.Distinction.Description,
		r.Price.Bottom, r.Price.Top, r.Rating, r.NumberVotes,
		r.CookingType, r.ImageURL, r.WebsiteURL, r.SourceURL,
		lat, lon,
	}
}

func runArgs(run models.PipelineRun) []any {
	return []any{
		run.ID, run.Status, run.StartedAt.UTC(), utcPtr(run.FinishedAt),
		run.CertificationCount, run.DirectoryCount, run.GoldenCount, run.GeocodedCount,
		run.Error,
	}
}

func scanRun(row rowScanner) (models.PipelineRun, error) {
	var (
		run      models.PipelineRun
		finished sql.NullTime
	)
	if err := row.Scan(
		&run.ID, &run.Status, &run.StartedAt, &finished,
		&run.CertificationCount, &run.DirectoryCount, &run.GoldenCount, &run.GeocodedCount,
		&run.Error,
	); err != nil {
		return models.PipelineRun{}, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

type rowsIter interface {
	rowScanner
	Next() bool
	Err() error
}

func scanRuns(rows rowsIter) ([]models.PipelineRun, error) {
	out := make([]models.PipelineRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("runs scan: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanStrings(rows rowsIter) ([]string, error) {
	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// placeholders yields "?" for SQLite or "$1", "$2", ... for Postgres.
type placeholders struct {
	style string
	n     int
}

func (p *placeholders) next() string {
	p.n++
	if p.style == "$" {
		return fmt.Sprintf("$%d", p.n)
	}
	return "?"
}

// buildFindSQL selects the records matching the categorical part of f, in
// corpus order.
func buildFindSQL(f query.Filter, style string) (string, []any) {
	ph := &placeholders{style: style}
	var where []string
	var args []any

	where = append(where, "distinction_type = "+ph.next())
	args = append(args, f.Distinction)

	if !f.AnyCuisine() {
		where = append(where, "cooking_type = "+ph.next())
		args = append(args, f.CookingType)
	}

	sqlStr := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE ` + strings.Join(where, " AND ")
	return sqlStr + " ORDER BY id", args
}

func buildCookingTypesSQL(distinction, style string) (string, []any) {
	ph := &placeholders{style: style}
	sqlStr := `SELECT DISTINCT cooking_type FROM restaurants WHERE cooking_type <> ''`
	var args []any
	if distinction != "" {
		sqlStr += " AND distinction_type = " + ph.next()
		args = append(args, distinction)
	}
	return sqlStr + " ORDER BY cooking_type", args
}

// matching applies the full filter, name search included.
func matching(records []models.Restaurant, f query.Filter) []models.Restaurant {
	out := records[:0]
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
