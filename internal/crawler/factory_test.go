package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/pkg/errors"
)

func TestCreateCrawlersFromDefaults(t *testing.T) {
	cfg := config.LoadConfig()
	crawlers, err := CreateCrawlers(cfg, NewMockCacheService())
	require.NoError(t, err)
	require.Len(t, crawlers, 6)

	names := map[string]string{}
	for _, c := range crawlers {
		names[c.GetSource()] = c.GetName()
	}
	assert.Equal(t, map[string]string{
		SourceBisnis:    "BisnisCrawler",
		SourceCNBC:      "CNBCCrawler",
		SourceIDX:       "IDXCrawler",
		SourceIQPlus:    "IQPlusCrawler",
		SourceKontan:    "KontanCrawler",
		SourcePasarDana: "PasarDanaCrawler",
	}, names)
}

func TestCreateCrawlersSkipsDisabled(t *testing.T) {
	cfg := config.LoadConfig()
	for name, src := range cfg.Sources {
		src.Enabled = name == SourceCNBC
		cfg.Sources[name] = src
	}

	crawlers, err := CreateCrawlers(cfg, nil)
	require.NoError(t, err)
	require.Len(t, crawlers, 1)
	assert.Equal(t, SourceCNBC, crawlers[0].GetSource())
}

func TestNewCrawlerUnknownSource(t *testing.T) {
	_, err := NewCrawler("detik", config.SourceConfig{BaseURL: "https://x"}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.False(t, IsKnownSource("detik"))
	assert.True(t, IsKnownSource(SourceKontan))
}

func TestNewCrawlerMissingPlaceholder(t *testing.T) {
	_, err := NewCrawler(SourceBisnis, config.SourceConfig{BaseURL: "https://x/index?page={page}"}, Options{})
	assert.True(t, errors.IsConfiguration(err))
}

func TestNewCrawlerWiresWindow(t *testing.T) {
	now := jakartaDate(2024, 3, 12, 10, 0)
	c, err := NewCrawler(SourceKontan, config.SourceConfig{BaseURL: config.DefaultBaseURLs[SourceKontan]},
		Options{Lookback: 24 * time.Hour, Now: fixedNow(now)})
	require.NoError(t, err)

	kontan, ok := c.(*KontanCrawler)
	require.True(t, ok)
	assert.Len(t, kontan.Days(Epoch), 2)
	assert.False(t, kontan.RequiresContent())
}
