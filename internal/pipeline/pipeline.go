// Package pipeline runs one reconciliation: fetch both sources, match them
// into golden records, geocode those and replace the stored corpus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"bibhub/internal/events"
	"bibhub/internal/geocode"
	"bibhub/internal/logging"
	"bibhub/internal/matcher"
	"bibhub/internal/scraper"
	"bibhub/internal/store"
	"bibhub/pkg/models"
)

// DefaultSourceTimeout bounds the fetch of each source kind.
const DefaultSourceTimeout = 5 * time.Minute

// ErrRunInProgress is returned by TryRun while another run holds the runner.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Sources fetches the raw records of both sources.
type Sources interface {
	FetchCertification(ctx context.Context) ([]models.Restaurant, error)
	FetchDirectory(ctx context.Context) ([]models.DirectoryRecord, error)
}

// Geocoder adds coordinates to golden records.
type Geocoder interface {
	Enrich(ctx context.Context, records []models.Restaurant) ([]models.Restaurant, geocode.Stats, error)
}

// Publisher receives run lifecycle events.
type Publisher interface {
	Publish(ev events.Event)
}

// Result is the outcome of one run.
type Result struct {
	Run     models.PipelineRun
	Golden  []models.Restaurant
	Geocode geocode.Stats
}

// Runner executes pipeline runs one at a time.
type Runner struct {
	Sources Sources
	Matcher *matcher.Matcher
	// Geocoder may be nil, in which case records are stored without
	// coordinates.
	Geocoder Geocoder
	Store    store.Store
	// Runs and Events are optional.
	Runs          store.RunLog
	Events        Publisher
	SourceTimeout time.Duration
	Logger        zerolog.Logger

	sem *semaphore.Weighted
	now func() time.Time
}

func NewRunner(sources Sources, m *matcher.Matcher, g Geocoder, s store.Store) *Runner {
	return &Runner{
		Sources:       sources,
		Matcher:       m,
		Geocoder:      g,
		Store:         s,
		SourceTimeout: DefaultSourceTimeout,
		Logger:        logging.Component("pipeline"),
		sem:           semaphore.NewWeighted(1),
		now:           time.Now,
	}
}

// Run waits for any run in progress to finish, then runs the pipeline.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)
	return r.run(ctx)
}

// TryRun runs the pipeline unless a run is already in progress, in which
// case it returns ErrRunInProgress at once.
func (r *Runner) TryRun(ctx context.Context) (*Result, error) {
	if !r.sem.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	defer r.sem.Release(1)
	return r.run(ctx)
}

func (r *Runner) run(ctx context.Context) (*Result, error) {
	res := &Result{Run: models.PipelineRun{
		ID:        uuid.NewString(),
		Status:    models.RunStatusRunning,
		StartedAt: r.now().UTC(),
	}}
	log := r.Logger.With().Str("run", res.Run.ID).Logger()
	ctx = logging.WithLogger(ctx, log)

	log.Info().Msg("pipeline started")
	r.record(ctx, res.Run)

	if err := r.execute(ctx, res); err != nil {
		res.Run.Status = models.RunStatusFailed
		res.Run.Error = err.Error()
		r.finish(ctx, res)
		log.Error().Err(err).Msg("pipeline failed")
		return res, err
	}

	res.Run.Status = models.RunStatusSucceeded
	r.finish(ctx, res)
	log.Info().
		Int("certification", res.Run.CertificationCount).
		Int("directory", res.Run.DirectoryCount).
		Int("golden", res.Run.GoldenCount).
		Int("geocoded", res.Run.GeocodedCount).
		Msg("pipeline finished")
	return res, nil
}

func (r *Runner) execute(ctx context.Context, res *Result) error {
	certs, dirs, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch sources: %w", err)
	}
	res.Run.CertificationCount = len(certs)
	res.Run.DirectoryCount = len(dirs)

	golden := r.Matcher.Match(certs, dirs)
	res.Run.GoldenCount = len(golden)

	if r.Geocoder != nil {
		golden, res.Geocode, err = r.Geocoder.Enrich(ctx, golden)
		if err != nil {
			return fmt.Errorf("geocode: %w", err)
		}
	} else {
		logging.FromContext(ctx).Warn().Msg("no geocoder configured, storing records without coordinates")
	}
	for _, g := range golden {
		if g.HasCoordinates() {
			res.Run.GeocodedCount++
		}
	}
	res.Golden = golden

	if err := r.Store.ReplaceAll(ctx, golden); err != nil {
		return err
	}
	return nil
}

// fetch reads both sources concurrently, each bounded by SourceTimeout.
func (r *Runner) fetch(ctx context.Context) ([]models.Restaurant, []models.DirectoryRecord, error) {
	var (
		certs []models.Restaurant
		dirs  []models.DirectoryRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sctx, cancel := r.sourceContext(gctx)
		defer cancel()
		var err error
		certs, err = r.Sources.FetchCertification(sctx)
		if err != nil {
			certs = nil
		}
		return r.degrade(gctx, "certification", err)
	})
	g.Go(func() error {
		sctx, cancel := r.sourceContext(gctx)
		defer cancel()
		var err error
		dirs, err = r.Sources.FetchDirectory(sctx)
		if err != nil {
			dirs = nil
		}
		return r.degrade(gctx, "directory", err)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if certs == nil {
		certs = []models.Restaurant{}
	}
	if dirs == nil {
		dirs = []models.DirectoryRecord{}
	}
	return certs, dirs, nil
}

// degrade turns a source failure into an empty source, unless the run itself
// was canceled.
func (r *Runner) degrade(ctx context.Context, kind string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logging.FromContext(ctx).Warn().
		Err(fmt.Errorf("%w: %s: %w", scraper.ErrSourceUnavailable, kind, err)).
		Msg("source failed, continuing without it")
	return nil
}

func (r *Runner) sourceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.SourceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.SourceTimeout)
}

func (r *Runner) finish(ctx context.Context, res *Result) {
	at := r.now().UTC()
	res.Run.FinishedAt = &at
	// the run outcome is recorded even when ctx was canceled
	r.record(context.WithoutCancel(ctx), res.Run)
}

func (r *Runner) record(ctx context.Context, run models.PipelineRun) {
	if r.Runs != nil {
		if err := r.Runs.SaveRun(ctx, run); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("save run")
		}
	}
	if r.Events != nil {
		r.Events.Publish(events.ForRun(run))
	}
}
