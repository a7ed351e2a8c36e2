package main

import (
	"context"
	"fmt"

	"stockgpt/internal/cache"
	"stockgpt/internal/config"
	"stockgpt/internal/repository"
	"stockgpt/internal/service"
	"stockgpt/pkg/logger"
	"stockgpt/pkg/postgres"
	pkgredis "stockgpt/pkg/redis"
)

// app holds the wired dependency graph for one process.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    cache.Store
	yahoo    repository.YahooFinanceRepository
	analyzer service.AnalyzerService
	comparer service.ComparerService
}

// buildApp loads configuration, applies CLI flag overrides, validates the
// AI settings before any network call, and wires the services.
func buildApp(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flagProvider != "" {
		cfg.AI.Provider = flagProvider
	}
	if flagAPIKey != "" {
		switch cfg.AI.Provider {
		case config.ProviderOpenAI:
			cfg.OpenAI.APIKey = flagAPIKey
		case config.ProviderAnthropic:
			cfg.Anthropic.APIKey = flagAPIKey
		case config.ProviderGemini:
			cfg.Gemini.APIKey = flagAPIKey
		}
	}

	if err := cfg.ValidateAI(); err != nil {
		return nil, nil, err
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store := buildStore(cfg, appLogger)

	aiRepo, err := repository.NewAIRepository(ctx, cfg, appLogger)
	if err != nil {
		return nil, nil, err
	}

	yahooRepo := repository.NewYahooFinanceRepository(cfg, appLogger)
	newsRepo := repository.NewNewsRepository(cfg, appLogger)

	var recordRepo repository.AnalysisRecordRepository
	var closeDB func()
	if cfg.Analyzer.PersistHistory && cfg.Database.Host != "" {
		db, err := postgres.NewDB(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			TimeZone:        cfg.Database.TimeZone,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogLevel:        cfg.Database.LogLevel,
		})
		if err != nil {
			appLogger.Warn("History database unavailable, continuing without persistence", logger.ErrorField(err))
		} else {
			recordRepo = repository.NewAnalysisRecordRepository(db.DB)
			if sqlDB, err := db.DB.DB(); err == nil {
				closeDB = func() { _ = sqlDB.Close() }
			}
		}
	}

	analyzer := service.NewAnalyzerService(cfg, appLogger, store, yahooRepo, newsRepo, aiRepo, recordRepo)
	comparer := service.NewComparerService(cfg, appLogger, store, yahooRepo, aiRepo, analyzer)

	cleanup := func() {
		if err := store.Close(context.Background()); err != nil {
			appLogger.Warn("Failed to close cache store", logger.ErrorField(err))
		}
		if closeDB != nil {
			closeDB()
		}
		_ = appLogger.Sync()
	}

	return &app{
		cfg:      cfg,
		log:      appLogger,
		store:    store,
		yahoo:    yahooRepo,
		analyzer: analyzer,
		comparer: comparer,
	}, cleanup, nil
}

// buildStore picks the cache backend, degrading from redis to memory
// when the server is unreachable.
func buildStore(cfg *config.Config, log *logger.Logger) cache.Store {
	if cfg.Cache.Backend == "redis" {
		client, err := pkgredis.NewClient(pkgredis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err == nil {
			return cache.NewRedis(client, log)
		}
		log.Warn("Redis unavailable, falling back to memory cache", logger.ErrorField(err))
	}
	return cache.NewMemory(cfg.Cache.SnapshotPath, log)
}
