package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
)

// BisnisCrawler crawls the Bisnis.com market index, one listing per day
// paged by page number.
type BisnisCrawler struct {
	ListingCrawler
}

// NewBisnisCrawler creates a new Bisnis.com crawler
func NewBisnisCrawler(base BaseCrawler, window Window) *BisnisCrawler {
	return &BisnisCrawler{ListingCrawler: ListingCrawler{
		BaseCrawler: base,
		Window:      window,
		PageVar:     PlaceholderPage,
		FirstPage:   1,
		PageStep:    1,
		Parse:       parseBisnisListing,
	}}
}

// GetName returns the crawler name
func (c *BisnisCrawler) GetName() string {
	return "BisnisCrawler"
}

func parseBisnisListing(doc *goquery.Document, pageURL string, day time.Time) ([]CandidateLink, bool) {
	list := doc.Find("div#indeksListView")
	if list.Length() == 0 {
		return nil, false
	}

	var links []CandidateLink
	list.Find("div.artContent a.artLink").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		title := strings.TrimSpace(a.Find(".artTitle").Text())
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		links = append(links, CandidateLink{
			Published: day,
			Link:      helpers.ResolveURL(pageURL, href),
			Title:     title,
		})
	})
	return links, true
}

// FetchContent extracts the paragraphs of article.detailsContent, skipping
// hashtag lines.
func (c *BisnisCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return Content{}, err
	}

	article := doc.Find("article.detailsContent").First()
	if article.Length() == 0 {
		return Content{}, nil
	}

	var paragraphs []string
	for _, p := range paragraphTexts(article) {
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return Content{Body: helpers.JoinParagraphs(paragraphs)}, nil
}
