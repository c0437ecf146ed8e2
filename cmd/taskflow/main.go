package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/taskflow/internal/api"
	"github.com/p-blackswan/taskflow/internal/board"
	"github.com/p-blackswan/taskflow/internal/config"
	"github.com/p-blackswan/taskflow/internal/health"
	"github.com/p-blackswan/taskflow/internal/kv"
	"github.com/p-blackswan/taskflow/internal/llm"
	"github.com/p-blackswan/taskflow/internal/metrics"
	"github.com/p-blackswan/taskflow/internal/persist"
	"github.com/p-blackswan/taskflow/internal/planner"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("storage", cfg.StorageBackend).
		Str("ai_provider", cfg.AIProvider).
		Bool("ai_enabled", cfg.AIEnabled()).
		Msg("starting taskflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Storage
	store, err := kv.Open(ctx, kv.Config{
		Backend:       kv.Backend(cfg.StorageBackend),
		Path:          cfg.StoragePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		PostgresDSN:   cfg.PostgresDSN,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()
	adapter := persist.New(store, logger, persist.WithNamespace(cfg.StorageNamespace))

	// AI provider; a missing key leaves AI features off
	provider, err := llm.New(ctx, llm.Config{
		Provider:        cfg.AIProvider,
		GeminiAPIKey:    cfg.GeminiKey(),
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Model:           cfg.AIModel,
		MaxTokens:       cfg.AIMaxTokens,
		Timeout:         cfg.AITimeout,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init AI provider")
	}
	pl := planner.New(provider, logger)

	// Board definition
	seed := config.DefaultBoardSeed()
	if cfg.BoardSeedPath != "" {
		seed, err = config.LoadBoardSeed(cfg.BoardSeedPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.BoardSeedPath).Msg("failed to load board seed")
		}
	}
	project, starter, err := board.FromSeed(seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid board seed")
	}

	m := metrics.New()
	svc, err := board.Open(ctx, adapter, pl, board.Options{
		Project:  project,
		Location: loc,
		Metrics:  m,
		Starter:  starter,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open board")
	}

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("storage", health.PingCheck(svc, logger))
	checker.Register("ai", health.OptionalCheck(svc.AIConfigured))

	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOriginList(),
		AITimeout:   cfg.AITimeout,
	}, svc, checker, m, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("taskflow stopped")
}
