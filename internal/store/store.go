// Package store persists the enriched corpus and the pipeline run log.
package store

import (
	"context"
	"errors"
	"fmt"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

// ErrWriteFailed wraps every failure to replace the corpus. The previous
// corpus is left in place when it is returned.
var ErrWriteFailed = errors.New("store write failed")

// Store holds the current corpus. Records are returned in corpus order.
type Store interface {
	// ReplaceAll swaps the whole corpus for records. Readers see either the
	// old corpus or the new one, never a mix.
	ReplaceAll(ctx context.Context, records []models.Restaurant) error
	ReadAll(ctx context.Context) ([]models.Restaurant, error)
	// Find returns the records passing f.
	Find(ctx context.Context, f query.Filter) ([]models.Restaurant, error)
	// Get returns nil without error when id is unknown.
	Get(ctx context.Context, id int) (*models.Restaurant, error)
	CookingTypes(ctx context.Context, distinction string) ([]string, error)
	Close() error
}

// RunLog records pipeline runs.
type RunLog interface {
	SaveRun(ctx context.Context, run models.PipelineRun) error
	// Runs returns the most recent runs first.
	Runs(ctx context.Context, limit int) ([]models.PipelineRun, error)
}

// Pinger is implemented by stores backed by a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWriteFailed, op, err)
}

const defaultRunsLimit = 20

func runsLimit(n int) int {
	if n <= 0 || n > 100 {
		return defaultRunsLimit
	}
	return n
}
