package crawler

import (
	"context"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
)

const (
	iqplusDateLayout = "02/01/06 - 15:04"
	iqplusMaxPages   = 200
)

// IQPlusHeaders are sent with every IQPlus request; the site rejects the
// default browser profile.
var IQPlusHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Referer":    "http://www.iqplus.info",
}

// IQPlusCrawler crawls the IQPlus stock news listing. Pages are ordered
// newest first, so the walk stops at the first page reaching past the
// watermark day.
type IQPlusCrawler struct {
	BaseCrawler
	Window
}

// NewIQPlusCrawler creates a new IQPlus crawler
func NewIQPlusCrawler(base BaseCrawler, window Window) *IQPlusCrawler {
	return &IQPlusCrawler{BaseCrawler: base, Window: window}
}

// GetName returns the crawler name
func (c *IQPlusCrawler) GetName() string {
	return "IQPlusCrawler"
}

// DiscoverLinks collects every page down to the watermark day and yields the
// result oldest first.
func (c *IQPlusCrawler) DiscoverLinks(ctx context.Context, since time.Time, known LinkSet) iter.Seq[CandidateLink] {
	return func(yield func(CandidateLink) bool) {
		candidates := c.collect(ctx, c.Start(since), known)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Published.Before(candidates[j].Published)
		})
		for _, candidate := range candidates {
			if !yield(candidate) {
				return
			}
		}
	}
}

func (c *IQPlusCrawler) collect(ctx context.Context, startDay time.Time, known LinkSet) []CandidateLink {
	var candidates []CandidateLink

	for page := 1; page <= iqplusMaxPages; page++ {
		url := c.BaseURL.Expand(Vars{}.With(PlaceholderPage, page))
		doc, err := c.fetchDocument(ctx, url)
		if perr := c.Pace(ctx); perr != nil {
			return nil
		}
		if err != nil {
			c.log().Warn().Err(err).Str("url", url).Msg("Listing page failed, ending walk")
			break
		}

		items, oldest := c.parsePage(doc, url)
		if len(items) == 0 {
			break
		}

		fresh := 0
		for _, item := range items {
			if DayStart(item.Published).Before(startDay) || known.Has(item.Link) {
				continue
			}
			known.Add(item.Link)
			candidates = append(candidates, item)
			fresh++
		}

		if fresh == 0 || DayStart(oldest).Before(startDay) {
			break
		}
	}
	return candidates
}

// parsePage returns the dated entries of a listing page and the oldest date
// among them. Entries with an unparseable date are skipped.
func (c *IQPlusCrawler) parsePage(doc *goquery.Document, pageURL string) ([]CandidateLink, time.Time) {
	var (
		items  []CandidateLink
		oldest time.Time
	)
	doc.Find("li[style='text-transform:capitalize;']").Each(func(_ int, li *goquery.Selection) {
		raw := strings.TrimSpace(li.Find("b").First().Text())
		published, err := time.ParseInLocation(iqplusDateLayout, raw, Jakarta)
		if err != nil {
			c.log().Debug().Str("date", raw).Msg("Skipping entry with malformed date")
			return
		}
		a := li.Find("a").First()
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		items = append(items, CandidateLink{
			Published: published,
			Link:      helpers.ResolveURL(pageURL, href),
			Title:     strings.TrimSpace(a.Text()),
		})
		if oldest.IsZero() || published.Before(oldest) {
			oldest = published
		}
	})
	return items, oldest
}

// FetchContent extracts the text of div#zoomthis without the date line and
// the repeated headline.
func (c *IQPlusCrawler) FetchContent(ctx context.Context, link string) (Content, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return Content{}, err
	}

	zoom := doc.Find("div#zoomthis").First()
	if zoom.Length() == 0 {
		return Content{}, nil
	}
	zoom.Find("small, h3").Remove()
	return Content{Body: textWithSeparator(zoom, "\n")}, nil
}
