package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/internal"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/services/cache"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/status"
	"sjsage522/newsharvester/services/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		logger.Default.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig loads, overlays and validates the configuration
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if path := os.Getenv("SOURCES_FILE"); path != "" {
		if err := cfg.LoadSourcesFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}
	log := logger.Get()

	articles, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	deps.Store = articles
	deps.Status = status.NewService(articles.DB())
	if err := deps.Status.Init(ctx); err != nil {
		deps.Close()
		return nil, err
	}
	log.Info().Str("path", cfg.DBPath).Msg("Opened article store")

	// Initialize cache service
	deps.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcache.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
		} else {
			deps.Cache = memcache
			log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
		}
	}

	// Initialize publisher
	deps.Publisher = publisher.NopPublisher{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, article events disabled")
		} else {
			deps.Publisher = redisPublisher
			log.Info().
				Str("addr", cfg.RedisAddr).
				Int("db", cfg.RedisDB).
				Str("stream", cfg.RedisStream).
				Msg("Connected to Redis")
		}
	}

	return deps, nil
}
