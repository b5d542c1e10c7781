package crawler

import (
	"context"
	"fmt"
	"strings"

	"sjsage522/newsharvester/helpers"
)

// idxMaxPages bounds the pages followed for one multi-page article
const idxMaxPages = 20

// IDXCrawler crawls the market-news category of the IDX Channel RSS feed.
// Articles are split over pages reachable at <link>/<n>.
type IDXCrawler struct {
	FeedCrawler
}

// NewIDXCrawler creates a new IDX Channel crawler
func NewIDXCrawler(base BaseCrawler) *IDXCrawler {
	return &IDXCrawler{FeedCrawler: FeedCrawler{
		BaseCrawler: base,
		Categories:  []string{"market-news"},
	}}
}

// GetName returns the crawler name
func (c *IDXCrawler) GetName() string {
	return "IDXCrawler"
}

// FetchContent walks the article's pages until one fails or lacks the
// content container. Only a failure on the first page is an error.
func (c *IDXCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	link = strings.TrimRight(link, "/")
	var pages []string

	for page := 1; page <= idxMaxPages; page++ {
		if page > 1 {
			if err := c.Pace(ctx); err != nil {
				break
			}
		}

		pageURL := fmt.Sprintf("%s/%d", link, page)
		doc, err := c.fetchDocument(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return Content{}, err
			}
			c.log().Debug().Err(err).Str("url", pageURL).Msg("Article pagination ended")
			break
		}

		container := doc.Find("div.article--content div.content").First()
		if container.Length() == 0 {
			break
		}
		pages = append(pages, helpers.CleanText(strings.Join(paragraphTexts(container), " ")))
	}

	return Content{Body: helpers.JoinParagraphs(pages)}, nil
}
