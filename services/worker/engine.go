package worker

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/store"
)

// State is a step of one engine run
type State string

// Engine states
const (
	StateIdle               State = "idle"
	StateResolvingWatermark State = "resolving_watermark"
	StateDiscovering        State = "discovering"
	StateFiltering          State = "filtering"
	StateFetchingContent    State = "fetching_content"
	StateNormalizing        State = "normalizing"
	StatePersisting         State = "persisting"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// Report summarizes one engine run
type Report struct {
	RunID     string
	Source    string
	State     State
	Watermark time.Time

	Discovered    int
	Known         int
	Duplicates    int
	Stale         int
	Fetched       int
	FetchFailures int
	EmptyDropped  int
	Stored        int

	Articles []crawler.Article
	Err      error
	Started  time.Time
	Finished time.Time
}

// ArticleEvent is the message published for every stored article
type ArticleEvent struct {
	RunID string `json:"run_id"`
	crawler.Article
}

// Engine runs the incremental crawl of one source at a time
type Engine struct {
	store     store.ArticleStore
	publisher publisher.Publisher
	workers   int
}

// NewEngine creates an engine fetching content with up to workers
// concurrent requests per source
func NewEngine(articles store.ArticleStore, pub publisher.Publisher, workers int) *Engine {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{store: articles, publisher: pub, workers: workers}
}

type fetchResult struct {
	content crawler.Content
	err     error
}

// Run crawls c once: resolve the watermark, discover and filter candidates,
// fetch and normalize their content, then append the batch. Only a store
// failure or cancellation fails the run; a failed run persists nothing.
func (e *Engine) Run(ctx context.Context, c crawler.Crawler, runID string) (*Report, error) {
	source := c.GetSource()
	log := logger.ForEngine(source).WithField("run_id", runID)
	report := &Report{RunID: runID, Source: source, State: StateIdle, Started: time.Now()}

	transition := func(next State) {
		log.Debug().Str("from", string(report.State)).Str("to", string(next)).Msg("State transition")
		report.State = next
	}
	fail := func(err error) (*Report, error) {
		transition(StateFailed)
		report.Err = err
		report.Finished = time.Now()
		log.Error().Err(err).Msg("Run failed")
		return report, err
	}

	transition(StateResolvingWatermark)
	watermark, err := e.store.GetWatermark(ctx, source)
	if err != nil {
		return fail(err)
	}
	report.Watermark = watermark

	known, err := e.store.FilterKnownLinks(ctx, source, crawler.DayStart(watermark))
	if err != nil {
		return fail(err)
	}
	log.Info().Time("watermark", watermark).Int("known", len(known)).Msg("Watermark resolved")

	transition(StateDiscovering)
	var discovered []crawler.CandidateLink
	for candidate := range c.DiscoverLinks(ctx, watermark, known.Clone()) {
		discovered = append(discovered, candidate)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	report.Discovered = len(discovered)

	transition(StateFiltering)
	candidates := e.filter(discovered, watermark, known, report, log)
	if len(candidates) == 0 {
		transition(StateDone)
		report.Finished = time.Now()
		log.Info().Int("discovered", report.Discovered).Msg("No new articles")
		return report, nil
	}

	transition(StateFetchingContent)
	results, err := e.fetchAll(ctx, c, candidates, log)
	if err != nil {
		return fail(err)
	}

	transition(StateNormalizing)
	batch := e.normalize(c, candidates, results, report, log)

	transition(StatePersisting)
	inserted, err := e.store.Append(ctx, batch)
	if err != nil {
		return fail(err)
	}
	report.Articles = inserted
	report.Stored = len(inserted)

	e.publish(ctx, runID, inserted, log)

	transition(StateDone)
	report.Finished = time.Now()
	log.Info().
		Int("discovered", report.Discovered).
		Int("fetched", report.Fetched).
		Int("fetch_failures", report.FetchFailures).
		Int("empty_dropped", report.EmptyDropped).
		Int("stored", report.Stored).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("Run finished")
	return report, nil
}

// filter drops known links, links repeated within the run and candidates
// published before the watermark, keeping discovery order
func (e *Engine) filter(discovered []crawler.CandidateLink, watermark time.Time, known crawler.LinkSet, report *Report, log *logger.Logger) []crawler.CandidateLink {
	seen := crawler.NewLinkSet()
	candidates := make([]crawler.CandidateLink, 0, len(discovered))
	for _, candidate := range discovered {
		switch {
		case known.Has(candidate.Link):
			report.Known++
		case seen.Has(candidate.Link):
			report.Duplicates++
			log.Debug().Str("link", candidate.Link).Msg("Duplicate link in run")
		case candidate.Published.Before(watermark):
			report.Stale++
			log.Debug().Str("link", candidate.Link).Time("published", candidate.Published).Msg("Published before watermark")
		default:
			seen.Add(candidate.Link)
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// fetchAll fetches every candidate's content with bounded concurrency. Each
// fetch is followed by the source's politeness delay. Results keep the
// candidates' order.
func (e *Engine) fetchAll(ctx context.Context, c crawler.Crawler, candidates []crawler.CandidateLink, log *logger.Logger) ([]fetchResult, error) {
	results := make([]fetchResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := c.FetchContent(gctx, candidate.Link)
			results[i] = fetchResult{content: content, err: err}
			if err != nil {
				event := log.Error()
				if errors.IsRecoverable(err) {
					event = log.Warn()
				}
				event.Err(err).Str("link", candidate.Link).Msg("Content fetch failed, dropping candidate")
			}
			return c.Pace(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// normalize builds the batch from fetched content, dropping failed fetches
// and, for sources that require it, empty bodies
func (e *Engine) normalize(c crawler.Crawler, candidates []crawler.CandidateLink, results []fetchResult, report *Report, log *logger.Logger) []crawler.Article {
	batch := make([]crawler.Article, 0, len(candidates))
	for i, candidate := range candidates {
		result := results[i]
		if result.err != nil {
			report.FetchFailures++
			continue
		}
		report.Fetched++

		body := helpers.CleanText(result.content.Body)
		if body == "" && c.RequiresContent() {
			report.EmptyDropped++
			log.Debug().Str("link", candidate.Link).Msg("Dropping article without content")
			continue
		}

		title := result.content.Title
		if title == "" {
			title = candidate.Title
		}

		batch = append(batch, crawler.Article{
			Source:    c.GetSource(),
			Published: candidate.Published,
			Link:      candidate.Link,
			Title:     title,
			Content:   body,
		})
	}
	return batch
}

// publish emits one event per stored article. Failures are logged only.
func (e *Engine) publish(ctx context.Context, runID string, articles []crawler.Article, log *logger.Logger) {
	for _, article := range articles {
		data, err := json.Marshal(ArticleEvent{RunID: runID, Article: article})
		if err != nil {
			log.Error().Err(err).Str("link", article.Link).Msg("Failed to encode article event")
			continue
		}
		if err := e.publisher.Publish(ctx, article.Source, data); err != nil {
			log.Warn().Err(err).Str("link", article.Link).Msg("Failed to publish article event")
		}
	}
}
