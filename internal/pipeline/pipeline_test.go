package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibhub/internal/events"
	"bibhub/internal/geocode"
	"bibhub/internal/matcher"
	"bibhub/internal/store"
	"bibhub/pkg/models"
)

type fakeSources struct {
	certs []models.Restaurant
	dirs  []models.DirectoryRecord
	// block, when set, holds FetchCertification until closed.
	block chan struct{}
}

func (f *fakeSources) FetchCertification(ctx context.Context) ([]models.Restaurant, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.certs, nil
}

func (f *fakeSources) FetchDirectory(ctx context.Context) ([]models.DirectoryRecord, error) {
	return f.dirs, nil
}

// fakeGeocoder places every record whose town is known.
type fakeGeocoder struct {
	towns map[string]models.Coordinates
	err   error
}

func (g fakeGeocoder) Enrich(ctx context.Context, records []models.Restaurant) ([]models.Restaurant, geocode.Stats, error) {
	out := make([]models.Restaurant, len(records))
	copy(out, records)
	var stats geocode.Stats
	for i := range out {
		stats.Requested++
		if c, ok := g.towns[out[i].Location.Town]; ok {
			c := c
			out[i].Coordinates = &c
			stats.Geocoded++
		} else {
			stats.Missing++
		}
	}
	return out, stats, g.err
}

type failingStore struct {
	*store.Memory
}

func (failingStore) ReplaceAll(context.Context, []models.Restaurant) error {
	return errors.Join(store.ErrWriteFailed, errors.New("disk full"))
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func sources() *fakeSources {
	return &fakeSources{
		certs: []models.Restaurant{
			{Name: "Le Bistrot", Phone: "+33 1 02 03 04 05", Location: models.Location{Street: "1 rue A", Town: "Paris", ZipCode: "75001"}, Distinction: models.Distinction{Type: models.DistinctionBibGourmand}},
			{Name: "Sans Label", Location: models.Location{Street: "9 rue Z", Town: "Nice", ZipCode: "06000"}, Distinction: models.Distinction{Type: models.DistinctionOneStar}},
			{Name: "La Table", Location: models.Location{Street: "2 rue B", Town: "Lyon", ZipCode: "69001"}, Distinction: models.Distinction{Type: models.DistinctionOneStar}},
		},
		dirs: []models.DirectoryRecord{
			{Name: "LA TABLE", Phone: "0400000000", Location: models.Location{Street: "2 rue B", Town: "Lyon", ZipCode: "69001"}},
			{Name: "le bistrot", Phone: "01 02 03 04 05", Location: models.Location{Street: "ailleurs", Town: "Paris", ZipCode: "75002"}},
		},
	}
}

func newRunner(src Sources, s store.Store) *Runner {
	g := fakeGeocoder{towns: map[string]models.Coordinates{"Paris": {Lat: 48.86, Lon: 2.34}}}
	return NewRunner(src, matcher.New(matcher.DefaultThresholds()), g, s)
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rec := &recorder{}

	r := newRunner(sources(), mem)
	r.Runs = mem
	r.Events = rec

	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSucceeded, res.Run.Status)
	assert.Equal(t, 3, res.Run.CertificationCount)
	assert.Equal(t, 2, res.Run.DirectoryCount)
	assert.Equal(t, 2, res.Run.GoldenCount)
	assert.Equal(t, 1, res.Run.GeocodedCount)
	assert.Equal(t, geocode.Stats{Requested: 2, Geocoded: 1, Missing: 1}, res.Geocode)
	require.NotNil(t, res.Run.FinishedAt)

	stored, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].ID)
	assert.Equal(t, "Le Bistrot", stored[0].Name)
	require.NotNil(t, stored[0].Coordinates)
	assert.Equal(t, 2, stored[1].ID)
	assert.Equal(t, "La Table", stored[1].Name)
	assert.Nil(t, stored[1].Coordinates)

	runs, err := mem.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.Run.ID, runs[0].ID)
	assert.Equal(t, models.RunStatusSucceeded, runs[0].Status)

	assert.Equal(t, []string{events.TypePipelineStarted, events.TypePipelineFinished}, rec.types())
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := newRunner(sources(), mem)

	_, err := r.Run(ctx)
	require.NoError(t, err)
	first, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	require.NoError(t, err)
	second, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_StoreFailureMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(models.Restaurant{ID: 1, Name: "Ancien"})
	rec := &recorder{}

	r := newRunner(sources(), failingStore{mem})
	r.Runs = mem
	r.Events = rec

	res, err := r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWriteFailed)
	assert.Equal(t, models.RunStatusFailed, res.Run.Status)
	assert.Contains(t, res.Run.Error, "disk full")

	stored, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Ancien", stored[0].Name)

	assert.Equal(t, []string{events.TypePipelineStarted, events.TypePipelineFailed}, rec.types())
}

func TestRun_GeocoderCanceledLeavesStoreUntouched(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(sources(), matcher.New(matcher.DefaultThresholds()), fakeGeocoder{err: context.Canceled}, mem)

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := mem.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRun_WithoutGeocoder(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(sources(), matcher.New(matcher.DefaultThresholds()), nil, mem)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Run.GoldenCount)
	assert.Zero(t, res.Run.GeocodedCount)
}

func TestTryRun_RejectsConcurrentRun(t *testing.T) {
	src := sources()
	src.block = make(chan struct{})
	r := newRunner(src, store.NewMemory())

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()

	// wait until the first run holds the runner
	require.Eventually(t, func() bool {
		if r.sem.TryAcquire(1) {
			r.sem.Release(1)
			return false
		}
		return true
	}, 5*time.Second, 5*time.Millisecond)

	_, err := r.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	// Run queues instead of failing
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(src.block)
	require.NoError(t, <-done)

	_, err = r.TryRun(context.Background())
	assert.NoError(t, err)
}

func TestRun_SourceTimeoutDegradesToEmptySource(t *testing.T) {
	src := sources()
	src.block = make(chan struct{})
	r := newRunner(src, store.NewMemory())
	r.SourceTimeout = 10 * time.Millisecond

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, res.Run.Status)
	assert.Zero(t, res.Run.CertificationCount)
	assert.Equal(t, 2, res.Run.DirectoryCount)
	assert.Zero(t, res.Run.GoldenCount)
}

func TestRun_CanceledDuringFetch(t *testing.T) {
	src := sources()
	src.block = make(chan struct{})
	r := newRunner(src, store.NewMemory())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res, err := r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.RunStatusFailed, res.Run.Status)
}
