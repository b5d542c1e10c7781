package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sjsage522/newsharvester/pkg/errors"
)

// DelayRange is the closed interval a politeness delay is drawn from
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// SourceConfig holds the per-source settings consumed by an adapter
type SourceConfig struct {
	BaseURL string
	Delay   DelayRange
	Enabled bool
}

// Config represents the application configuration
type Config struct {
	// Storage
	DBPath string

	// Crawler configuration
	Delay           DelayRange
	FetchTimeout    time.Duration
	FetchWorkers    int
	InitialLookback time.Duration
	RateLimitBlock  time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Sources keyed by source tag
	Sources map[string]SourceConfig

	// Environment
	Environment string
}

// DefaultBaseURLs are the listing/feed templates for the supported sources
var DefaultBaseURLs = map[string]string{
	"cnbc":      "https://www.cnbcindonesia.com/market/rss",
	"kontan":    "https://www.kontan.co.id/search/indeks?kanal=investasi&tanggal={day}&bulan={month}&tahun={year}&pos=indeks&per_page={per_page}",
	"bisnis":    "https://www.bisnis.com/index?categoryId=194&date={date}&type=indeks&page={page}",
	"idx":       "https://www.idxchannel.com/rss",
	"pasardana": "https://www.pasardana.id/rss",
	"iqplus":    "http://www.iqplus.info/box_listnews_more.php?csection=stock_news&id={page}",
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	workers, _ := strconv.Atoi(getEnv("FETCH_WORKERS", "1"))
	lookbackDays, _ := strconv.Atoi(getEnv("INITIAL_LOOKBACK_DAYS", "7"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "500"))

	cfg := &Config{
		DBPath: getEnv("DB_PATH", "data/news.db"),
		Delay: DelayRange{
			Min: getSeconds("DELAY_MIN_SECONDS", 1),
			Max: getSeconds("DELAY_MAX_SECONDS", 20),
		},
		FetchTimeout:         getSeconds("FETCH_TIMEOUT_SECONDS", 15),
		FetchWorkers:         workers,
		InitialLookback:      time.Duration(lookbackDays) * 24 * time.Hour,
		RateLimitBlock:       time.Duration(blockSeconds) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "news"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		Environment:          getEnv("HARVESTER_ENVIRONMENT", "development"),
		Sources:              make(map[string]SourceConfig, len(DefaultBaseURLs)),
	}

	for name, url := range DefaultBaseURLs {
		cfg.Sources[name] = SourceConfig{
			BaseURL: getEnv(strings.ToUpper(name)+"_URL", url),
			Delay:   cfg.Delay,
			Enabled: true,
		}
	}

	return cfg
}

// sourcesFile mirrors the YAML layout of a sources file
type sourcesFile struct {
	DelayRange []float64 `yaml:"delay_request_range"`
	Sources    map[string]struct {
		BaseURL    string    `yaml:"base_url"`
		DelayRange []float64 `yaml:"delay_request_range"`
		Enabled    *bool     `yaml:"enabled"`
	} `yaml:"sources"`
}

// LoadSourcesFile overlays the settings of a YAML sources file onto the config.
// Sources missing from the file keep their defaults.
func (c *Config) LoadSourcesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfiguration("read sources file", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.NewConfiguration("parse sources file", err)
	}

	if file.DelayRange != nil {
		global, err := parseDelay(file.DelayRange)
		if err != nil {
			return err
		}
		for name, src := range c.Sources {
			if src.Delay == c.Delay {
				src.Delay = global
				c.Sources[name] = src
			}
		}
		c.Delay = global
	}

	for name, entry := range file.Sources {
		src, ok := c.Sources[name]
		if !ok {
			src = SourceConfig{Delay: c.Delay, Enabled: true}
		}
		if entry.BaseURL != "" {
			src.BaseURL = entry.BaseURL
		}
		if entry.DelayRange != nil {
			delay, err := parseDelay(entry.DelayRange)
			if err != nil {
				return err
			}
			src.Delay = delay
		}
		if entry.Enabled != nil {
			src.Enabled = *entry.Enabled
		}
		c.Sources[name] = src
	}

	return nil
}

func parseDelay(values []float64) (DelayRange, error) {
	if len(values) != 2 {
		return DelayRange{}, errors.NewConfiguration(
			fmt.Sprintf("delay_request_range needs [min, max], got %d values", len(values)), nil)
	}
	return DelayRange{
		Min: time.Duration(values[0] * float64(time.Second)),
		Max: time.Duration(values[1] * float64(time.Second)),
	}, nil
}

// Validate checks the configuration for invocation-time errors
func (c *Config) Validate() error {
	if err := c.Delay.validate("global"); err != nil {
		return err
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("fetch timeout must be positive", nil)
	}
	if c.FetchWorkers < 1 {
		return errors.NewConfiguration("fetch workers must be at least 1", nil)
	}
	if c.InitialLookback < 0 {
		return errors.NewConfiguration("initial lookback must not be negative", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("redis stream count must be at least 1", nil)
	}
	for name, src := range c.Sources {
		if !src.Enabled {
			continue
		}
		if src.BaseURL == "" {
			return errors.NewConfiguration(fmt.Sprintf("source %q has no base url", name), nil)
		}
		if err := src.Delay.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (d DelayRange) validate(owner string) error {
	if d.Min < 0 || d.Max < 0 {
		return errors.NewConfiguration(fmt.Sprintf("%s delay range must not be negative", owner), nil)
	}
	if d.Min > d.Max {
		return errors.NewConfiguration(fmt.Sprintf("%s delay range min %s exceeds max %s", owner, d.Min, d.Max), nil)
	}
	return nil
}

// EnabledSources returns the enabled source tags in sorted order
func (c *Config) EnabledSources() []string {
	names := make([]string, 0, len(c.Sources))
	for name, src := range c.Sources {
		if src.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getSeconds(key string, defaultValue float64) time.Duration {
	seconds, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		seconds = defaultValue
	}
	return time.Duration(seconds * float64(time.Second))
}
