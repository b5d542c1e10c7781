package crawler

import (
	"context"

	"sjsage522/newsharvester/helpers"
)

// PasarDanaCrawler crawls the PasarDana RSS feed. Records without a body
// are not stored.
type PasarDanaCrawler struct {
	FeedCrawler
}

// NewPasarDanaCrawler creates a new PasarDana crawler
func NewPasarDanaCrawler(base BaseCrawler) *PasarDanaCrawler {
	return &PasarDanaCrawler{FeedCrawler: FeedCrawler{BaseCrawler: base}}
}

// GetName returns the crawler name
func (c *PasarDanaCrawler) GetName() string {
	return "PasarDanaCrawler"
}

// RequiresContent drops records whose body is empty
func (c *PasarDanaCrawler) RequiresContent() bool {
	return true
}

// FetchContent extracts the paragraphs of section.entry-content
func (c *PasarDanaCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return Content{}, err
	}

	section := doc.Find("section.entry-content").First()
	if section.Length() == 0 {
		return Content{}, nil
	}
	return Content{Body: helpers.JoinParagraphs(paragraphTexts(section))}, nil
}
