package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/news-service/internal/crawl"
	"github.com/user/news-service/internal/enrich"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/internal/storage"
	"github.com/user/news-service/internal/worker"
)

// Server holds the dependencies for the HTTP trigger surface.
type Server struct {
	port       string
	router     http.Handler
	httpServer *http.Server

	triggers  *crawl.Triggers
	enricher  *enrich.Enricher
	news      repository.NewsStore
	summaries repository.SummaryStore
	pool      *worker.Pool
	db        *pgxpool.Pool
	cache     *storage.RedisCache
	logger    *zap.Logger

	// runCtx parents every fire-and-forget job so shutdown can cancel a
	// batch between items.
	runCtx context.Context

	defaultMaxCount int
}

func NewServer(port string, runCtx context.Context, triggers *crawl.Triggers, enricher *enrich.Enricher,
	news repository.NewsStore, summaries repository.SummaryStore, pool *worker.Pool,
	db *pgxpool.Pool, cache *storage.RedisCache, defaultMaxCount int, logger *zap.Logger) *Server {
	s := &Server{
		port:            port,
		triggers:        triggers,
		enricher:        enricher,
		news:            news,
		summaries:       summaries,
		pool:            pool,
		db:              db,
		cache:           cache,
		logger:          logger,
		runCtx:          runCtx,
		defaultMaxCount: defaultMaxCount,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
