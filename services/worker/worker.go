package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/status"
)

// ErrAlreadyRunning is returned when an activity is marked running by
// another process
var ErrAlreadyRunning = stderrors.New("activity already running")

// StatusTracker records activity state shared across processes
type StatusTracker interface {
	TryStart(ctx context.Context, activity string) (bool, error)
	Set(ctx context.Context, activity, status string) error
}

// Worker runs the engine across the configured sources
type Worker struct {
	crawlers  []crawler.Crawler
	engine    *Engine
	status    StatusTracker
	publisher publisher.Publisher
	logger    *logger.Logger
	shuffle   func(n int, swap func(i, j int))
	force     bool
}

// NewWorker creates a new worker
func NewWorker(
	crawlers []crawler.Crawler,
	engine *Engine,
	tracker StatusTracker,
	pub publisher.Publisher,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &Worker{
		crawlers:  crawlers,
		engine:    engine,
		status:    tracker,
		publisher: pub,
		logger:    logger.ForWorker(),
		shuffle:   rand.Shuffle,
	}
}

// WithShuffle replaces the function ordering sources in RunAll
func (w *Worker) WithShuffle(shuffle func(n int, swap func(i, j int))) *Worker {
	w.shuffle = shuffle
	return w
}

// WithForce makes runs ignore a running flag left by another process
func (w *Worker) WithForce(force bool) *Worker {
	w.force = force
	return w
}

// Sources returns the source tags the worker can run
func (w *Worker) Sources() []string {
	sources := make([]string, len(w.crawlers))
	for i, c := range w.crawlers {
		sources[i] = c.GetSource()
	}
	return sources
}

func (w *Worker) lookup(source string) crawler.Crawler {
	for _, c := range w.crawlers {
		if c.GetSource() == source {
			return c
		}
	}
	return nil
}

// RunOne runs the engine for one source
func (w *Worker) RunOne(ctx context.Context, source string) (*Report, error) {
	c := w.lookup(source)
	if c == nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("unknown or disabled source %q", source), nil)
	}

	activity := status.SourceActivity(source)
	if err := w.start(ctx, activity); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	w.logger.Info().Str("source", source).Str("crawler", c.GetName()).Str("run_id", runID).Msg("Starting run")

	report, err := w.engine.Run(ctx, c, runID)
	w.finish(activity, err)
	return report, err
}

// RunAll runs every source once in shuffled order. A failing source does
// not stop the others; its error is kept in its report and the returned
// error is nil. Only the activity guard and cancellation fail RunAll.
func (w *Worker) RunAll(ctx context.Context) ([]*Report, error) {
	if err := w.start(ctx, status.ActivityScraping); err != nil {
		return nil, err
	}

	order := make([]crawler.Crawler, len(w.crawlers))
	copy(order, w.crawlers)
	w.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	start := time.Now()
	var (
		reports []*Report
		failed  int
		runErr  error
	)
	for _, c := range order {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		report, err := w.RunOne(ctx, c.GetSource())
		if report == nil {
			report = &Report{Source: c.GetSource(), State: StateFailed, Err: err}
		}
		reports = append(reports, report)
		if err != nil {
			failed++
			w.logger.WithError(err).Warn().Str("source", c.GetSource()).Str("crawler", c.GetName()).Msg("Source failed")
		}
	}

	// Trim all streams after crawling
	if err := w.publisher.TrimStreams(context.WithoutCancel(ctx)); err != nil {
		logger.LogError("StreamTrimming", err, "failed to trim streams")
	}

	outcome := runErr
	if outcome == nil && failed > 0 {
		outcome = fmt.Errorf("%d of %d sources failed", failed, len(order))
	}
	w.finish(status.ActivityScraping, outcome)

	w.logger.Info().Int("sources", len(order)).Int("failed", failed).Dur("elapsed", time.Since(start)).Msg("All sources finished")
	return reports, runErr
}

func (w *Worker) start(ctx context.Context, activity string) error {
	if w.status == nil {
		return nil
	}
	if w.force {
		return w.status.Set(ctx, activity, status.Running)
	}
	started, err := w.status.TryStart(ctx, activity)
	if err != nil {
		return err
	}
	if !started {
		return fmt.Errorf("%s: %w", activity, ErrAlreadyRunning)
	}
	return nil
}

// finish records the outcome even when the run's context was cancelled
func (w *Worker) finish(activity string, runErr error) {
	if w.status == nil {
		return
	}
	outcome := status.Success
	if runErr != nil {
		outcome = status.Failed
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.status.Set(ctx, activity, outcome); err != nil {
		logger.LogError("Status", err, "failed to record %s for %s", outcome, activity)
	}
}
