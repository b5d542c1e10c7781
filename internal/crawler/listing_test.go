package crawler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func kontanListing(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="list-berita"><ul>`)
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<li><div class="sp-hl linkto-black"><a href="%s">Judul %s</a></div></li>`, href, href)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func TestWindowDays(t *testing.T) {
	w := Window{Lookback: 48 * time.Hour, Now: fixedNow(jakartaDate(2024, 3, 12, 15, 0))}

	days := w.Days(Epoch)
	require.Len(t, days, 3)
	assert.True(t, days[0].Equal(jakartaDate(2024, 3, 10, 0, 0)))
	assert.True(t, days[2].Equal(jakartaDate(2024, 3, 12, 0, 0)))

	days = w.Days(jakartaDate(2024, 3, 12, 9, 30))
	require.Len(t, days, 1)
	assert.True(t, days[0].Equal(jakartaDate(2024, 3, 12, 0, 0)))

	assert.Empty(t, w.Days(jakartaDate(2024, 3, 13, 1, 0)))
}

func TestKontanStopsOnPageWithoutNewLinks(t *testing.T) {
	srv := newFixtureServer(t)
	tmpl := srv.URL + "/indeks?tanggal={day}&bulan={month}&tahun={year}&per_page={per_page}"
	srv.page("/indeks?tanggal=11&bulan=03&tahun=2024&per_page=0", kontanListing("/news/a", "/news/b"))
	srv.page("/indeks?tanggal=11&bulan=03&tahun=2024&per_page=20", kontanListing("/news/b", "/news/a"))
	srv.page("/indeks?tanggal=11&bulan=03&tahun=2024&per_page=40", kontanListing("/news/never"))
	srv.page("/indeks?tanggal=12&bulan=03&tahun=2024&per_page=0", kontanListing("/news/c", "/news/old"))
	srv.page("/indeks?tanggal=12&bulan=03&tahun=2024&per_page=20", kontanListing())

	rec := &sleepRecorder{}
	c := NewKontanCrawler(newTestBase(SourceKontan, tmpl, rec),
		Window{Lookback: 24 * time.Hour, Now: fixedNow(jakartaDate(2024, 3, 12, 15, 0))})

	got := collect(c.DiscoverLinks(context.Background(), jakartaDate(2024, 3, 11, 0, 0), NewLinkSet(srv.URL+"/news/old")))

	assert.Equal(t, []string{srv.URL + "/news/a", srv.URL + "/news/b", srv.URL + "/news/c"}, links(got))
	assert.True(t, got[0].Published.Equal(jakartaDate(2024, 3, 11, 0, 0)))
	assert.True(t, got[2].Published.Equal(jakartaDate(2024, 3, 12, 0, 0)))
	assert.Equal(t, []string{
		"/indeks?tanggal=11&bulan=03&tahun=2024&per_page=0",
		"/indeks?tanggal=11&bulan=03&tahun=2024&per_page=20",
		"/indeks?tanggal=12&bulan=03&tahun=2024&per_page=0",
		"/indeks?tanggal=12&bulan=03&tahun=2024&per_page=20",
	}, srv.requested())
	assert.Equal(t, 4, rec.count(), "one pause per listing page")
}

func TestKontanFailedPageMovesToNextDay(t *testing.T) {
	srv := newFixtureServer(t)
	tmpl := srv.URL + "/indeks?tanggal={day}&bulan={month}&tahun={year}&per_page={per_page}"
	srv.fail("/indeks?tanggal=11&bulan=03&tahun=2024&per_page=0", 500)
	srv.page("/indeks?tanggal=12&bulan=03&tahun=2024&per_page=0", kontanListing("/news/c"))
	srv.page("/indeks?tanggal=12&bulan=03&tahun=2024&per_page=20", `<html><body>maintenance</body></html>`)

	c := NewKontanCrawler(newTestBase(SourceKontan, tmpl, nil),
		Window{Now: fixedNow(jakartaDate(2024, 3, 12, 15, 0))})

	got := collect(c.DiscoverLinks(context.Background(), jakartaDate(2024, 3, 11, 8, 0), NewLinkSet()))
	assert.Equal(t, []string{srv.URL + "/news/c"}, links(got))
}

func TestListingStopsWhenConsumerStops(t *testing.T) {
	srv := newFixtureServer(t)
	tmpl := srv.URL + "/indeks?tanggal={day}&bulan={month}&tahun={year}&per_page={per_page}"
	srv.page("/indeks?tanggal=12&bulan=03&tahun=2024&per_page=0", kontanListing("/news/a", "/news/b"))

	c := NewKontanCrawler(newTestBase(SourceKontan, tmpl, nil),
		Window{Now: fixedNow(jakartaDate(2024, 3, 12, 15, 0))})

	var first []string
	for candidate := range c.DiscoverLinks(context.Background(), jakartaDate(2024, 3, 12, 0, 0), NewLinkSet()) {
		first = append(first, candidate.Link)
		break
	}
	assert.Equal(t, []string{srv.URL + "/news/a"}, first)
	assert.Len(t, srv.requested(), 1)
}

func TestKontanFetchContent(t *testing.T) {
	srv := newFixtureServer(t)
	srv.page("/news/a", `<html><head><title>Saham BBCA Naik</title></head><body>
		<div itemprop="articleBody">
			<p>Reporter: Budi | Editor: Ani</p>
			<p>KONTAN.CO.ID - JAKARTA. Saham BBCA naik.</p>
			<p>Baca Juga: Rupiah Melemah</p>
			<p>Investor asing masuk.</p>
			<p>Cek Berita dan Artikel yang lain di Google News</p>
		</div></body></html>`)

	c := NewKontanCrawler(newTestBase(SourceKontan, "x{day}{month}{year}{per_page}", nil), Window{})
	content, err := c.FetchContent(context.Background(), srv.URL+"/news/a")
	require.NoError(t, err)
	assert.Equal(t, "Saham BBCA Naik", content.Title)
	assert.Equal(t, "KONTAN.CO.ID - JAKARTA. Saham BBCA naik. Investor asing masuk.", content.Body)
}

func TestBisnisDiscoverAndFetch(t *testing.T) {
	srv := newFixtureServer(t)
	tmpl := srv.URL + "/index?date={date}&page={page}"
	srv.page("/index?date=2024-03-12&page=1", `<div id="indeksListView">
		<div class="artContent"><a class="artLink" href="/read/1"><h4 class="artTitle"> Emiten A </h4></a></div>
		<div class="artContent"><a class="artLink" href="https://market.bisnis.com/read/2"><h4 class="artTitle">Emiten B</h4></a></div>
	</div>`)
	srv.page("/index?date=2024-03-12&page=2", `<div id="indeksListView"></div>`)
	srv.page("/read/1", `<article class="detailsContent"><p>Bisnis.com, JAKARTA - Laba naik.</p><p>#saham</p><p></p><p>Dividen dibagikan.</p></article>`)

	c := NewBisnisCrawler(newTestBase(SourceBisnis, tmpl, nil),
		Window{Now: fixedNow(jakartaDate(2024, 3, 12, 20, 0))})

	got := collect(c.DiscoverLinks(context.Background(), jakartaDate(2024, 3, 12, 0, 0), NewLinkSet()))
	require.Len(t, got, 2)
	assert.Equal(t, "Emiten A", got[0].Title)
	assert.Equal(t, srv.URL+"/read/1", got[0].Link)
	assert.Equal(t, "https://market.bisnis.com/read/2", got[1].Link)
	assert.Len(t, srv.requested(), 2)

	content, err := c.FetchContent(context.Background(), got[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "Bisnis.com, JAKARTA - Laba naik. Dividen dibagikan.", content.Body)
	assert.Empty(t, content.Title)
}
