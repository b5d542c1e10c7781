package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/cache"
)

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	Source    string
	BaseURL   URLTemplate
	Client    *helpers.Client
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Throttle  *Throttle
	Logger    *logger.Logger
}

// GetSource returns the source tag
func (c *BaseCrawler) GetSource() string {
	return c.Source
}

// RequiresContent is false unless a crawler overrides it
func (c *BaseCrawler) RequiresContent() bool {
	return false
}

func (c *BaseCrawler) log() *logger.Logger {
	if c.Logger == nil {
		return logger.ForSource(c.Source)
	}
	return c.Logger
}

func (c *BaseCrawler) blockKey() string {
	return c.Source + "_rate_limited"
}

// fetch fetches a URL unless the source is currently blocked for rate
// limiting. A rate limited response blocks the source for BlockTime.
func (c *BaseCrawler) fetch(ctx context.Context, url string) (io.Reader, error) {
	if c.CacheSvc != nil {
		if _, err := c.CacheSvc.Get(c.blockKey()); err == nil {
			return nil, errors.NewRateLimit(c.Source,
				fmt.Sprintf("%ds (blocked)", int(c.BlockTime/time.Second)))
		}
	}

	client := c.Client
	if client == nil {
		client = helpers.NewClient(helpers.DefaultTimeout)
	}

	body, err := client.Fetch(ctx, url)
	if err == nil {
		return body, nil
	}

	if stderrors.Is(err, helpers.ErrRateLimited) {
		if c.CacheSvc != nil && c.BlockTime > 0 {
			value := []byte(fmt.Sprintf("%d", c.BlockTime/time.Second))
			if cerr := c.CacheSvc.Set(c.blockKey(), value, c.BlockTime); cerr != nil {
				c.log().Warn().Err(cerr).Msg("Failed to store rate limit block")
			}
		}
		return nil, errors.New(errors.ErrorTypeRateLimit, c.Source, url, err)
	}
	return nil, errors.NewTransport(c.Source, url, err)
}

// fetchDocument fetches and parses an HTML page
func (c *BaseCrawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(c.Source, url, err)
	}
	return doc, nil
}

// Pace waits the politeness delay after an outbound request
func (c *BaseCrawler) Pace(ctx context.Context) error {
	return c.Throttle.Wait(ctx)
}

// paragraphTexts returns the trimmed text of every <p> under sel
func paragraphTexts(sel *goquery.Selection) []string {
	var texts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(p.Text()))
	})
	return texts
}

// textWithSeparator joins every non-blank text node under sel with sep
func textWithSeparator(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
