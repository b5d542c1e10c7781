package crawler

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/cache"
)

// Options carries the shared collaborators handed to every adapter
type Options struct {
	Client    *helpers.Client
	Cache     cache.CacheService
	BlockTime time.Duration
	Lookback  time.Duration
	Now       func() time.Time
	// Sleep overrides the politeness pause; nil sleeps for real
	Sleep SleepFunc
}

// adapterSpec describes how to build one source adapter
type adapterSpec struct {
	// Placeholders the base URL must carry
	Placeholders []string
	// Headers sent with every request of the source
	Headers map[string]string
	Build   func(base BaseCrawler, window Window) Crawler
}

var adapters = map[string]adapterSpec{
	SourceCNBC: {
		Build: func(base BaseCrawler, _ Window) Crawler { return NewCNBCCrawler(base) },
	},
	SourceIDX: {
		Build: func(base BaseCrawler, _ Window) Crawler { return NewIDXCrawler(base) },
	},
	SourcePasarDana: {
		Build: func(base BaseCrawler, _ Window) Crawler { return NewPasarDanaCrawler(base) },
	},
	SourceKontan: {
		Placeholders: []string{PlaceholderDay, PlaceholderMonth, PlaceholderYear, PlaceholderPerPage},
		Build:        func(base BaseCrawler, w Window) Crawler { return NewKontanCrawler(base, w) },
	},
	SourceBisnis: {
		Placeholders: []string{PlaceholderDate, PlaceholderPage},
		Build:        func(base BaseCrawler, w Window) Crawler { return NewBisnisCrawler(base, w) },
	},
	SourceIQPlus: {
		Placeholders: []string{PlaceholderPage},
		Headers:      IQPlusHeaders,
		Build:        func(base BaseCrawler, w Window) Crawler { return NewIQPlusCrawler(base, w) },
	},
}

// KnownSources returns the source tags an adapter exists for, sorted
func KnownSources() []string {
	sources := make([]string, 0, len(adapters))
	for source := range adapters {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// IsKnownSource reports whether an adapter exists for source
func IsKnownSource(source string) bool {
	return slices.Contains(KnownSources(), source)
}

// NewCrawler builds the adapter for source
func NewCrawler(source string, src config.SourceConfig, opts Options) (Crawler, error) {
	spec, ok := adapters[source]
	if !ok {
		return nil, errors.NewConfiguration(fmt.Sprintf("unknown source %q", source), nil)
	}

	baseURL := URLTemplate(src.BaseURL)
	if err := baseURL.Require(source, spec.Placeholders...); err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = helpers.NewClient(helpers.DefaultTimeout)
	}
	if len(spec.Headers) > 0 {
		client = client.WithHeaders(spec.Headers)
	}

	throttle := NewThrottle(src.Delay)
	if opts.Sleep != nil {
		throttle = throttle.WithSleep(opts.Sleep)
	}

	base := BaseCrawler{
		Source:    source,
		BaseURL:   baseURL,
		Client:    client,
		CacheSvc:  opts.Cache,
		BlockTime: opts.BlockTime,
		Throttle:  throttle,
		Logger:    logger.ForSource(source),
	}
	return spec.Build(base, Window{Lookback: opts.Lookback, Now: opts.Now}), nil
}

// CreateCrawlers creates the crawlers of every enabled source
func CreateCrawlers(cfg *config.Config, cacheSvc cache.CacheService) ([]Crawler, error) {
	opts := Options{
		Client:    helpers.NewClient(cfg.FetchTimeout),
		Cache:     cacheSvc,
		BlockTime: cfg.RateLimitBlock,
		Lookback:  cfg.InitialLookback,
	}

	var crawlers []Crawler
	for _, source := range cfg.EnabledSources() {
		c, err := NewCrawler(source, cfg.Sources[source], opts)
		if err != nil {
			return nil, err
		}
		crawlers = append(crawlers, c)
	}

	logger.Info("Created %d crawlers", len(crawlers))
	for i, c := range crawlers {
		logger.Debug("Crawler %d: %s (%s)", i, c.GetName(), c.GetSource())
	}
	return crawlers, nil
}
