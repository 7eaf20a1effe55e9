package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/stock-scout/internal/cache"
	"github.com/aristath/stock-scout/internal/clients/quotes"
	"github.com/aristath/stock-scout/internal/clients/screener"
	"github.com/aristath/stock-scout/internal/config"
	"github.com/aristath/stock-scout/internal/database"
	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/aristath/stock-scout/internal/modules/recommendations"
	"github.com/aristath/stock-scout/internal/modules/screening"
	"github.com/aristath/stock-scout/internal/scheduler"
	"github.com/aristath/stock-scout/internal/server"
	"github.com/aristath/stock-scout/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Stock Scout")

	// Initialize run-history database
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Seed the algorithm registry
	registry, err := algorithms.SeedRegistry(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed algorithm registry")
	}

	// Candidate cache and screening pipeline
	store := cache.NewStore(cfg.CacheMaxEntries, log)
	screenerClient := screener.NewClient(cfg.ScreenerURL, cfg.ScreenerAPIToken, cfg.FetchTimeout, cfg.FetchMaxRetries, log)
	source := screening.NewService(screenerClient, store, cfg.CacheTTL, log)

	quotesClient := quotes.NewClient(cfg.QuotesURL, cfg.FetchTimeout, log)

	// Recommendation service
	service := recommendations.NewService(recommendations.ServiceConfig{
		Strategies: recommendations.DefaultStrategies(),
		Source:     source,
		Aggregator: recommendations.NewAggregator(registry, log),
		Comparator: recommendations.NewComparator(registry, log),
		Confirmer:  recommendations.NewTechnicalConfirmer(quotesClient, log),
		Store:      recommendations.NewRunRepository(db.Conn(), log),
		EnrichTopN: cfg.EnrichTopN,
		Log:        log,
	})

	// Initialize scheduler with per-strategy warm-refresh jobs
	sched := scheduler.New(log)
	for _, strategy := range service.Strategies() {
		if strategy.RefreshSchedule == "" {
			continue
		}
		job := scheduler.NewWarmRefreshJob(service, strategy.Name, 0, log)
		if err := sched.AddJob(strategy.RefreshSchedule, job); err != nil {
			log.Fatal().Err(err).Str("strategy", strategy.Name).Msg("Failed to register refresh job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		DB:       db,
		Config:   cfg,
		DevMode:  cfg.DevMode,
		Service:  service,
		Registry: registry,
		Cache:    store,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
