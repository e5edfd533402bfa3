package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

//go:embed postgres_schema.sql
var postgresSchema string

var restaurantColumnNames = []string{
	"id", "name", "phone", "street", "town", "zip_code", "distinction_type", "distinction_description",
	"price_bottom", "price_top", "rating", "number_votes", "cooking_type", "image_url", "website_url",
	"source_url", "lat", "lon",
}

// Postgres stores the corpus and run log in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool, checks it and applies the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// ReplaceAll deletes the corpus and copies records in inside one
// transaction.
func (p *Postgres) ReplaceAll(ctx context.Context, records []models.Restaurant) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return writeFailed("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM restaurants`); err != nil {
		return writeFailed("clear corpus", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"restaurants"},
		restaurantColumnNames,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return insertArgs(records[i]), nil
		}),
	)
	if err != nil {
		return writeFailed("copy corpus", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return writeFailed("commit tx", err)
	}
	return nil
}

func (p *Postgres) ReadAll(ctx context.Context) ([]models.Restaurant, error) {
	return p.list(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY id`)
}

func (p *Postgres) Find(ctx context.Context, f query.Filter) ([]models.Restaurant, error) {
	sqlStr, args := buildFindSQL(f, "$")
	rows, err := p.list(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	return matching(rows, f), nil
}

func (p *Postgres) Get(ctx context.Context, id int) (*models.Restaurant, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	r, err := scanRestaurant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan get: %w", err)
	}
	return &r, nil
}

func (p *Postgres) CookingTypes(ctx context.Context, distinction string) ([]string, error) {
	sqlStr, args := buildCookingTypesSQL(distinction, "$")
	rows, err := p.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("cooking types query: %w", err)
	}
	defer rows.Close()

	out, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	// byte order, independent of the server collation
	slices.Sort(out)
	return out, nil
}

func (p *Postgres) SaveRun(ctx context.Context, run models.PipelineRun) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (id, status, started_at, finished_at, certification_count,
			directory_count, golden_count, geocoded_count, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
		  status = EXCLUDED.status,
		  finished_at = EXCLUDED.finished_at,
		  certification_count = EXCLUDED.certification_count,
		  directory_count = EXCLUDED.directory_count,
		  golden_count = EXCLUDED.golden_count,
		  geocoded_count = EXCLUDED.geocoded_count,
		  error = EXCLUDED.error
	`, runArgs(run)...)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (p *Postgres) Runs(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, status, started_at, finished_at, certification_count, directory_count,
			golden_count, geocoded_count, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, runsLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("runs query: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) list(ctx context.Context, sqlStr string, args ...any) ([]models.Restaurant, error) {
	rows, err := p.pool.Query(ctx, sqlStr, args...)
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
