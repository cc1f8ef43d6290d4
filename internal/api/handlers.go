package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/news-service/internal/crawl"
	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/storage"
)

func (s *Server) handleTriggerSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "source")
	maxCount := s.queryInt(r, "maxCount", s.defaultMaxCount)

	if err := s.triggers.TriggerSource(sourceID, maxCount); err != nil {
		if errors.Is(err, crawl.ErrUnknownSource) {
			s.respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("trigger submit failed", zap.String("source", sourceID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not queue crawl")
		return
	}

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "crawl queued", "source": sourceID,
	})
}

func (s *Server) handleTriggerAll(w http.ResponseWriter, r *http.Request) {
	maxCount := s.queryInt(r, "maxCount", s.defaultMaxCount)

	if err := s.triggers.TriggerAll(maxCount); err != nil {
		s.logger.Error("trigger-all submit failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not queue crawl")
		return
	}

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "crawl queued for all sources"})
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.triggers.ListSources())
}

func (s *Server) handleProbeAll(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.triggers.ProbeAll(r.Context()))
}

func (s *Server) handleRunHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.queryInt(r, "limit", 10)
	runs, err := s.triggers.RunHistory(r.Context(), limit)
	if err != nil {
		s.logger.Error("run history read failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not load run history")
		return
	}
	if runs == nil {
		runs = []domain.CrawlRun{}
	}
	s.respondWithJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid news id")
		return
	}

	article, err := s.news.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "news not found")
			return
		}
		s.logger.Error("news read failed", zap.Int64("id", id), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not load news")
		return
	}

	if err := s.news.IncrementView(r.Context(), id); err != nil {
		s.logger.Warn("view increment failed", zap.Int64("id", id), zap.Error(err))
	}

	summary, err := s.summaries.FindByNewsID(r.Context(), id)
	if err != nil {
		s.logger.Warn("summary read failed", zap.Int64("id", id), zap.Error(err))
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"news":    article,
		"summary": summary,
	})
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid news id")
		return
	}

	if _, err := s.news.FindByID(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "news not found")
			return
		}
		s.logger.Error("news read failed", zap.Int64("id", id), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not load news")
		return
	}

	if err := s.pool.Submit(func() {
		if _, err := s.enricher.EnrichOne(s.runCtx, id); err != nil {
			s.logger.Error("queued enrichment failed", zap.Int64("news_id", id), zap.Error(err))
		}
	}); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "could not queue enrichment")
		return
	}

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "summary generation queued"})
}

func (s *Server) handleBatchEnrich(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	// Reserve the batch slot before answering, so a 202 is a promise the
	// batch will actually run.
	run, err := s.enricher.StartBatch(force)
	if err != nil {
		s.respondWithError(w, http.StatusConflict, "summary batch already in progress")
		return
	}

	if err := s.pool.Submit(func() { run(s.runCtx) }); err != nil {
		// Release the reservation without doing any work.
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		run(cancelled)
		s.respondWithError(w, http.StatusInternalServerError, "could not queue batch")
		return
	}

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "summary batch queued"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthStatus := make(map[string]string)

	if err := s.db.Ping(r.Context()); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	if err := s.cache.Ping(r.Context()); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	if healthStatus["postgres"] != "healthy" || healthStatus["redis"] != "healthy" {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
