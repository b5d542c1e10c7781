package crawler

import (
	"context"
	"iter"
	"time"
)

// Source tags
const (
	SourceCNBC      = "cnbc"
	SourceKontan    = "kontan"
	SourceBisnis    = "bisnis"
	SourceIDX       = "idx"
	SourcePasarDana = "pasardana"
	SourceIQPlus    = "iqplus"
)

// Jakarta is the timezone every stored timestamp is expressed in (UTC+7)
var Jakarta = loadJakarta()

// Epoch is the watermark of a source with no stored articles. It means
// "fetch everything available".
var Epoch = time.Unix(0, 0).In(Jakarta)

func loadJakarta() *time.Location {
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		return loc
	}
	return time.FixedZone("Asia/Jakarta", 7*60*60)
}

// IsEpoch reports whether t is the empty-watermark sentinel
func IsEpoch(t time.Time) bool {
	return !t.After(Epoch)
}

// DayStart returns midnight of t's calendar day in Jakarta
func DayStart(t time.Time) time.Time {
	t = t.In(Jakarta)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Jakarta)
}

// Article is a stored news record
type Article struct {
	SequenceID int64     `json:"sequence_id"`
	Source     string    `json:"source"`
	Published  time.Time `json:"published"`
	Link       string    `json:"link"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IngestedAt time.Time `json:"ingested_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// CandidateLink is an article link found during discovery. Published may
// have day granularity and Title may be empty for listing-only sources.
type CandidateLink struct {
	Published time.Time
	Link      string
	Title     string
}

// Content is what a crawler extracts from a single article page. A non-empty
// Title replaces the one found at discovery time.
type Content struct {
	Title string
	Body  string
}

// LinkSet is a set of article links
type LinkSet map[string]struct{}

// NewLinkSet creates a set holding links
func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s[l] = struct{}{}
	}
	return s
}

// Has reports whether link is in the set
func (s LinkSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

// Add inserts link into the set
func (s LinkSet) Add(link string) {
	s[link] = struct{}{}
}

// Clone returns an independent copy of the set
func (s LinkSet) Clone() LinkSet {
	c := make(LinkSet, len(s))
	for l := range s {
		c[l] = struct{}{}
	}
	return c
}

// Crawler interface defines the contract for all source adapters
type Crawler interface {
	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetSource returns the source tag stored with every article
	GetSource() string

	// DiscoverLinks walks the source for candidates published since the
	// watermark, skipping links in known. The sequence is finite, emitted in
	// ascending publication order, and re-walks the source on every call.
	// Transport and parse failures end the walk early instead of failing it.
	DiscoverLinks(ctx context.Context, since time.Time, known LinkSet) iter.Seq[CandidateLink]

	// FetchContent fetches one article. A page that does not match the
	// expected structure yields empty content and no error.
	FetchContent(ctx context.Context, link string) (Content, error)

	// RequiresContent reports whether a record with an empty body must be
	// dropped instead of stored.
	RequiresContent() bool

	// Pace sleeps the source's randomized politeness delay
	Pace(ctx context.Context) error
}
