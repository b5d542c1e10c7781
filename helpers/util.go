package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// GetSplitPart returns the index-th element of target split by separate
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// FirstPathSegment returns the first segment of a URL path, e.g. "market-news"
// for https://www.idxchannel.com/market-news/some-article.
func FirstPathSegment(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	segment, err := GetSplitPart(strings.Trim(u.Path, "/"), "/", 0)
	if err != nil {
		return ""
	}
	return segment
}

// ResolveURL resolves a possibly relative href against base
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
