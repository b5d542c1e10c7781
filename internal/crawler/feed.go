package crawler

import (
	"context"
	"iter"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/pkg/errors"
)

// FeedCrawler discovers links from a single RSS/Atom document
type FeedCrawler struct {
	BaseCrawler

	// Categories, when set, is an allow-list for the first URL path segment
	Categories []string
}

// DiscoverLinks parses the feed and yields entries published after since
func (c *FeedCrawler) DiscoverLinks(ctx context.Context, since time.Time, known LinkSet) iter.Seq[CandidateLink] {
	return func(yield func(CandidateLink) bool) {
		for _, candidate := range c.readFeed(ctx, since, known) {
			if !yield(candidate) {
				return
			}
		}
	}
}

func (c *FeedCrawler) readFeed(ctx context.Context, since time.Time, known LinkSet) []CandidateLink {
	url := string(c.BaseURL)
	body, err := c.fetch(ctx, url)
	if perr := c.Pace(ctx); perr != nil {
		return nil
	}
	if err != nil {
		c.log().Warn().Err(err).Str("url", url).Msg("Feed fetch failed")
		return nil
	}

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		c.log().Warn().Err(errors.NewParsing(c.Source, url, err)).Msg("Feed parse failed")
		return nil
	}

	var (
		candidates []CandidateLink
		malformed  int
		filtered   int
	)
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if link == "" || published == nil {
			malformed++
			continue
		}
		if len(c.Categories) > 0 && !slices.Contains(c.Categories, helpers.FirstPathSegment(link)) {
			filtered++
			continue
		}
		if !published.After(since) || known.Has(link) {
			continue
		}
		known.Add(link)
		candidates = append(candidates, CandidateLink{
			Published: published.In(Jakarta),
			Link:      link,
			Title:     strings.TrimSpace(item.Title),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Published.Before(candidates[j].Published)
	})

	c.log().Debug().
		Int("entries", len(feed.Items)).
		Int("candidates", len(candidates)).
		Int("malformed", malformed).
		Int("category_filtered", filtered).
		Msg("Feed parsed")

	return candidates
}
