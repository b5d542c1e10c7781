package crawler

import (
	"context"

	"sjsage522/newsharvester/helpers"
)

// CNBCCrawler crawls market news from the CNBC Indonesia RSS feed
type CNBCCrawler struct {
	FeedCrawler
}

// NewCNBCCrawler creates a new CNBC Indonesia crawler
func NewCNBCCrawler(base BaseCrawler) *CNBCCrawler {
	return &CNBCCrawler{FeedCrawler: FeedCrawler{BaseCrawler: base}}
}

// GetName returns the crawler name
func (c *CNBCCrawler) GetName() string {
	return "CNBCCrawler"
}

// FetchContent extracts the paragraphs of div.detail-text
func (c *CNBCCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return Content{}, err
	}

	body := doc.Find("div.detail-text").First()
	if body.Length() == 0 {
		return Content{}, nil
	}
	return Content{Body: helpers.JoinParagraphs(paragraphTexts(body))}, nil
}
