package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

const restaurantColumns = `id, name, phone, street, town, zip_code, distinction_type, distinction_description,
	price_bottom, price_top, rating, number_votes, cooking_type, image_url, website_url, source_url, lat, lon`

// SQLite stores the corpus and run log in the tables of pkg/database.
type SQLite struct {
	DB *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{DB: db}
}

// ReplaceAll deletes the corpus and inserts records inside one transaction.
func (s *SQLite) ReplaceAll(ctx context.Context, records []models.Restaurant) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return writeFailed("begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurants`); err != nil {
		return writeFailed("clear corpus", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return writeFailed("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, insertArgs(r)...); err != nil {
			return writeFailed(fmt.Sprintf("insert %d", r.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return writeFailed("commit tx", err)
	}
	return nil
}

func (s *SQLite) ReadAll(ctx context.Context) ([]models.Restaurant, error) {
	return s.list(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY id`)
}

// Find narrows on distinction and cooking type in SQL. The name filter runs
// in Go because SQLite only folds ASCII case.
func (s *SQLite) Find(ctx context.Context, f query.Filter) ([]models.Restaurant, error) {
	sqlStr, args := buildFindSQL(f, "?")
	rows, err := s.list(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	return matching(rows, f), nil
}

func (s *SQLite) Get(ctx context.Context, id int) (*models.Restaurant, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)
	r, err := scanRestaurant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan get: %w", err)
	}
	return &r, nil
}

func (s *SQLite) CookingTypes(ctx context.Context, distinction string) ([]string, error) {
	sqlStr, args := buildCookingTypesSQL(distinction, "?")
	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("cooking types query: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *SQLite) SaveRun(ctx context.Context, run models.PipelineRun) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, status, started_at, finished_at, certification_count,
			directory_count, golden_count, geocoded_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  status = excluded.status,
		  finished_at = excluded.finished_at,
		  certification_count = excluded.certification_count,
		  directory_count = excluded.directory_count,
		  golden_count = excluded.golden_count,
		  geocoded_count = excluded.geocoded_count,
		  error = excluded.error
	`, runArgs(run)...)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLite) Runs(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, status, started_at, finished_at, certification_count, directory_count,
			golden_count, geocoded_count, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, runsLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("runs query: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

func (s *SQLite) list(ctx context.Context, sqlStr string, args ...any) ([]models.Restaurant, error) {
	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Restaurant, 0)
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
