// Package restaurants serves the stored corpus: filter and sort queries,
// single-record lookup and the cuisine list.
package restaurants

import (
	"context"
	"errors"
	"fmt"

	"bibhub/internal/query"
	"bibhub/internal/store"
	"bibhub/pkg/models"
)

// ErrStore wraps every failure to read the corpus.
var ErrStore = errors.New("corpus unavailable")

type Service struct {
	Store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{Store: s}
}

// Search validates req, reads the matching records and sorts them.
func (s *Service) Search(ctx context.Context, req query.Request) ([]models.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	found, err := s.Store.Find(ctx, req.Filter())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return query.Run(found, req)
}

// Get returns nil without error when id is unknown.
func (s *Service) Get(ctx context.Context, id int) (*models.Restaurant, error) {
	r, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return r, nil
}

// Cuisines lists the cooking types present for a distinction, preceded by
// the "all cuisines" choice.
func (s *Service) Cuisines(ctx context.Context, distinction string) ([]string, error) {
	types, err := s.Store.CookingTypes(ctx, distinction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return append([]string{query.AllCuisines}, types...), nil
}
