package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
)

// kontanBoilerplate marks paragraphs that are not part of the story
var kontanBoilerplate = []string{
	"Reporter",
	"Editor",
	"Baca Juga",
	"Cek Berita dan Artikel yang lain",
	"Menarik Dibaca",
	"Selanjutnya:",
}

// KontanCrawler crawls the Kontan investment index, one listing per day
// paged by offset.
type KontanCrawler struct {
	ListingCrawler
}

// NewKontanCrawler creates a new Kontan crawler
func NewKontanCrawler(base BaseCrawler, window Window) *KontanCrawler {
	return &KontanCrawler{ListingCrawler: ListingCrawler{
		BaseCrawler: base,
		Window:      window,
		PageVar:     PlaceholderPerPage,
		FirstPage:   0,
		PageStep:    20,
		Parse:       parseKontanListing,
	}}
}

// GetName returns the crawler name
func (c *KontanCrawler) GetName() string {
	return "KontanCrawler"
}

func parseKontanListing(doc *goquery.Document, pageURL string, day time.Time) ([]CandidateLink, bool) {
	list := doc.Find("div.list-berita")
	if list.Length() == 0 {
		return nil, false
	}

	var links []CandidateLink
	list.Find("div.sp-hl.linkto-black a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		links = append(links, CandidateLink{
			Published: day,
			Link:      helpers.ResolveURL(pageURL, href),
			Title:     strings.TrimSpace(a.Text()),
		})
	})
	return links, true
}

// FetchContent extracts the article title and body paragraphs, skipping
// reporter credits and related-article teasers.
func (c *KontanCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return Content{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("[itemprop='articleBody']").First()
	if body.Length() == 0 {
		return Content{Title: title}, nil
	}

	var paragraphs []string
	for _, p := range paragraphTexts(body) {
		if isKontanBoilerplate(p) {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return Content{Title: title, Body: helpers.JoinParagraphs(paragraphs)}, nil
}

func isKontanBoilerplate(paragraph string) bool {
	for _, marker := range kontanBoilerplate {
		if strings.Contains(paragraph, marker) {
			return true
		}
	}
	return false
}
