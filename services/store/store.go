package store

import (
	"context"
	"time"

	"sjsage522/newsharvester/internal/crawler"
)

// ArticleStore represents the persistent article collection shared by all
// sources
type ArticleStore interface {
	// GetWatermark returns the latest published time stored for source, or
	// crawler.Epoch when the source has no articles
	GetWatermark(ctx context.Context, source string) (time.Time, error)

	// FilterKnownLinks returns the links stored for source with
	// published >= since
	FilterKnownLinks(ctx context.Context, source string, since time.Time) (crawler.LinkSet, error)

	// Append stores the batch atomically, skipping links already stored for
	// their source. It returns the inserted articles with their assigned
	// sequence ids and timestamps.
	Append(ctx context.Context, batch []crawler.Article) ([]crawler.Article, error)

	// CountBySource returns the number of stored articles per source
	CountBySource(ctx context.Context) (map[string]int, error)
}
