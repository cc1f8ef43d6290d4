package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/ai"
	"github.com/user/news-service/internal/api"
	"github.com/user/news-service/internal/classify"
	"github.com/user/news-service/internal/config"
	"github.com/user/news-service/internal/crawl"
	"github.com/user/news-service/internal/dedup"
	"github.com/user/news-service/internal/enrich"
	"github.com/user/news-service/internal/monitoring"
	"github.com/user/news-service/internal/scheduler"
	"github.com/user/news-service/internal/source"
	"github.com/user/news-service/internal/storage"
	"github.com/user/news-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.LogLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	// Storage layer
	db, err := storage.Connect(runCtx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := storage.InitSchema(runCtx, db); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	newsRepo := storage.NewNewsRepo(db)
	categoryRepo := storage.NewCategoryRepo(db)
	ruleRepo := storage.NewRuleRepo(db)
	runRepo := storage.NewRunRepo(db)
	summaryRepo := storage.NewSummaryRepo(db)
	cache := storage.NewRedisCache(cfg.RedisAddr,
		time.Duration(cfg.ProbeCacheTTLMin)*time.Minute, logger)

	metrics := monitoring.NewMetrics()

	// Source adapters
	registry := source.NewRegistry(
		source.NewSina(logger),
		source.NewCctv(logger),
		source.NewNetease(logger),
	)

	// Core pipeline
	engine := classify.NewEngine(categoryRepo, ruleRepo, logger)
	guard := dedup.NewGuard(newsRepo)
	pool := worker.NewPool(cfg.CrawlWorkers, logger)

	aiClient := ai.NewClient(cfg.AIAPIKey, cfg.AIAPIURL, cfg.AIModel,
		time.Duration(cfg.AITimeoutSecs)*time.Second)
	enricher := enrich.NewEnricher(newsRepo, summaryRepo, aiClient, metrics, logger, enrich.Options{
		Pacing:       time.Duration(cfg.SummaryPaceSecs) * time.Second,
		PageSize:     cfg.SummaryPageSize,
		ModelVersion: cfg.AIModel,
	})

	// Article creation emits a one-way enrichment task; the orchestrator
	// never calls back into the enricher directly.
	var enrichHook func(int64)
	if cfg.AutoSummary {
		enrichHook = func(newsID int64) {
			if err := pool.Submit(func() {
				if _, err := enricher.EnrichOne(runCtx, newsID); err != nil {
					logger.Error("auto enrichment failed", zap.Int64("news_id", newsID), zap.Error(err))
				}
			}); err != nil {
				logger.Warn("auto enrichment submit failed", zap.Int64("news_id", newsID), zap.Error(err))
			}
		}
	}

	orch := crawl.NewOrchestrator(registry, guard, engine, newsRepo, runRepo, metrics, logger, crawl.Options{
		ItemDelay:     time.Duration(cfg.ItemDelaySecs) * time.Second,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    time.Duration(cfg.RetryDelaySecs) * time.Second,
		EnrichHook:    enrichHook,
	})
	triggers := crawl.NewTriggers(orch, registry, runRepo, pool, cache, logger)

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.ScheduleEnabled {
		sched = scheduler.New(triggers, logger,
			cfg.CrawlCron, cfg.FullCrawlCron, cfg.MaxCountPerSource, cfg.FullCrawlMax)
		if err := sched.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP trigger surface
	server := api.NewServer(cfg.ServerPort, runCtx, triggers, enricher,
		newsRepo, summaryRepo, pool, db, cache, cfg.MaxCountPerSource, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	if sched != nil {
		sched.Stop()
	}
	cancelRuns() // stops a running enrichment batch between items
	pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
