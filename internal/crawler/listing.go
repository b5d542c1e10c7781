package crawler

import (
	"context"
	"iter"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxPagesPerBucket bounds the pages walked for one date bucket
const maxPagesPerBucket = 100

// Window decides where a date-bounded walk starts and ends
type Window struct {
	// Lookback is how far back a source with no stored articles is walked
	Lookback time.Duration
	// Now returns the current time; time.Now when nil
	Now func() time.Time
}

func (w Window) now() time.Time {
	if w.Now == nil {
		return time.Now().In(Jakarta)
	}
	return w.Now().In(Jakarta)
}

// Start returns the first day to walk for a watermark
func (w Window) Start(since time.Time) time.Time {
	if IsEpoch(since) {
		return DayStart(w.now().Add(-w.Lookback))
	}
	return DayStart(since)
}

// Days returns every calendar day from the watermark's start day to today
func (w Window) Days(since time.Time) []time.Time {
	today := DayStart(w.now())
	var days []time.Time
	for day := w.Start(since); !day.After(today); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// PageParser extracts the candidates of one listing page, resolving links
// against pageURL. ok is false when the page lacks the listing container.
type PageParser func(doc *goquery.Document, pageURL string, day time.Time) (links []CandidateLink, ok bool)

// ListingCrawler walks paginated listings bucketed by day, oldest day first
type ListingCrawler struct {
	BaseCrawler
	Window

	PageVar   string
	FirstPage int
	PageStep  int
	Parse     PageParser
}

// DiscoverLinks walks every day bucket from the watermark's day to today
func (c *ListingCrawler) DiscoverLinks(ctx context.Context, since time.Time, known LinkSet) iter.Seq[CandidateLink] {
	return func(yield func(CandidateLink) bool) {
		for _, day := range c.Days(since) {
			if ctx.Err() != nil {
				return
			}
			if !c.walkBucket(ctx, day, known, yield) {
				return
			}
		}
	}
}

// walkBucket pages through one day. It stops the bucket on a failed,
// malformed or empty page and on a page with nothing new. It returns false
// when the whole walk must end.
func (c *ListingCrawler) walkBucket(ctx context.Context, day time.Time, known LinkSet, yield func(CandidateLink) bool) bool {
	vars := DateVars(day)
	step := c.PageStep
	if step <= 0 {
		step = 1
	}

	for i, page := 0, c.FirstPage; i < maxPagesPerBucket; i, page = i+1, page+step {
		url := c.BaseURL.Expand(vars.With(c.PageVar, page))
		doc, err := c.fetchDocument(ctx, url)
		if perr := c.Pace(ctx); perr != nil {
			return false
		}
		if err != nil {
			c.log().Warn().Err(err).Str("url", url).Msg("Listing page failed, moving to next day")
			return true
		}

		links, ok := c.Parse(doc, url, day)
		if !ok || len(links) == 0 {
			c.log().Debug().Str("url", url).Bool("malformed", !ok).Msg("Listing bucket exhausted")
			return true
		}

		fresh := 0
		for _, link := range links {
			if link.Link == "" || known.Has(link.Link) {
				continue
			}
			known.Add(link.Link)
			fresh++
			if !yield(link) {
				return false
			}
		}
		if fresh == 0 {
			c.log().Debug().Str("url", url).Msg("No new links on page")
			return true
		}
	}
	return true
}
