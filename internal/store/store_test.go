package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibhub/internal/query"
	"bibhub/pkg/database"
	"bibhub/pkg/models"
)

func sample() []models.Restaurant {
	return []models.Restaurant{
		{
			ID:          1,
			Name:        "Le Bistrot",
			Phone:       "01 02 03 04 05",
			Location:    models.Location{Street: "1 rue A", Town: "Paris", ZipCode: "75001"},
			Distinction: models.Distinction{Type: models.DistinctionBibGourmand, Description: "Bonnes petites tables"},
			Price:       models.Price{Bottom: 25, Top: 45},
			Rating:      4.5,
			NumberVotes: 12,
			CookingType: "Cuisine moderne",
			SourceURL:   "https://guide/1",
			Coordinates: &models.Coordinates{Lat: 48.86, Lon: 2.34},
		},
		{
			ID:          2,
			Name:        "Élysée",
			Location:    models.Location{Town: "Lyon"},
			Distinction: models.Distinction{Type: models.DistinctionOneStar},
			CookingType: "Cuisine classique",
		},
		{
			ID:          3,
			Name:        "Chez Marie",
			Distinction: models.Distinction{Type: models.DistinctionBibGourmand},
			CookingType: "Cuisine du terroir",
		},
	}
}

// backends returns every store that runs without external services.
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "bibhub.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	jf, err := OpenJSONFile(filepath.Join(t.TempDir(), "corpus.json"))
	require.NoError(t, err)

	out := map[string]Backend{
		"memory": NewMemory(),
		"json":   jf,
		"sqlite": NewSQLite(db),
	}
	t.Cleanup(func() {
		for _, b := range out {
			_ = b.Close()
		}
	})
	return out
}

func TestBackends_ReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.ReplaceAll(ctx, sample()))

			got, err := s.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)

			// a second replace leaves only the new corpus
			require.NoError(t, s.ReplaceAll(ctx, sample()[2:]))
			got, err = s.ReadAll(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, 3, got[0].ID)
			assert.Nil(t, got[0].Coordinates)

			require.NoError(t, s.ReplaceAll(ctx, nil))
			got, err = s.ReadAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestBackends_FindGetCookingTypes(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.ReplaceAll(ctx, sample()))

			found, err := s.Find(ctx, query.Filter{Distinction: models.DistinctionBibGourmand, CookingType: query.AllCuisines})
			require.NoError(t, err)
			require.Len(t, found, 2)
			assert.Equal(t, 1, found[0].ID)
			assert.Equal(t, 3, found[1].ID)

			found, err = s.Find(ctx, query.Filter{Distinction: models.DistinctionOneStar, Query: "élysée"})
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "Élysée", found[0].Name)

			found, err = s.Find(ctx, query.Filter{Distinction: models.DistinctionBibGourmand, CookingType: "Cuisine moderne"})
			require.NoError(t, err)
			assert.Len(t, found, 1)

			r, err := s.Get(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "Le Bistrot", r.Name)
			require.NotNil(t, r.Coordinates)
			assert.Equal(t, 48.86, r.Coordinates.Lat)

			r, err = s.Get(ctx, 99)
			require.NoError(t, err)
			assert.Nil(t, r)

			types, err := s.CookingTypes(ctx, models.DistinctionBibGourmand)
			require.NoError(t, err)
			assert.Equal(t, []string{"Cuisine du terroir", "Cuisine moderne"}, types)

			types, err = s.CookingTypes(ctx, "")
			require.NoError(t, err)
			assert.Len(t, types, 3)
		})
	}
}

func TestBackends_RunLog(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first := models.PipelineRun{ID: "run-1", Status: models.RunStatusRunning, StartedAt: start}
			require.NoError(t, s.SaveRun(ctx, first))

			finished := start.Add(time.Minute)
			first.Status = models.RunStatusSucceeded
			first.FinishedAt = &finished
			first.GoldenCount = 7
			require.NoError(t, s.SaveRun(ctx, first))

			second := models.PipelineRun{ID: "run-2", Status: models.RunStatusFailed, StartedAt: start.Add(time.Hour), Error: "boom"}
			require.NoError(t, s.SaveRun(ctx, second))

			runs, err := s.Runs(ctx, 10)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			assert.Equal(t, "run-2", runs[0].ID)
			assert.Equal(t, "boom", runs[0].Error)
			assert.Nil(t, runs[0].FinishedAt)

			assert.Equal(t, models.RunStatusSucceeded, runs[1].Status)
			assert.Equal(t, 7, runs[1].GoldenCount)
			require.NotNil(t, runs[1].FinishedAt)
			assert.True(t, finished.Equal(*runs[1].FinishedAt))
			assert.True(t, start.Equal(runs[1].StartedAt))

			runs, err = s.Runs(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, runs, 1)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sample()...)

	got, err := m.ReadAll(ctx)
	require.NoError(t, err)
	got[0].Coordinates.Lat = 0
	got[0].Name = "changed"

	again, err := m.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), again)
}

func TestSQLite_FailedReplaceKeepsPreviousCorpus(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "bibhub.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	s := NewSQLite(db)
	defer s.Close()

	require.NoError(t, s.ReplaceAll(ctx, sample()))

	// duplicate primary key fails halfway through the insert
	dup := []models.Restaurant{sample()[0], sample()[0]}
	err = s.ReplaceAll(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	require.NoError(t, b.Close())

	b, err = Open(ctx, Config{Driver: DriverJSON, Path: filepath.Join(t.TempDir(), "x.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, b)

	_, err = Open(ctx, Config{Driver: DriverJSON})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "mongo"})
	assert.ErrorContains(t, err, "mongo")
}
