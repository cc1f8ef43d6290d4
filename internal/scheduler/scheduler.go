package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// crawlTriggers is the slice of the trigger surface the scheduler drives.
type crawlTriggers interface {
	TriggerAll(maxCount int) error
}

// Scheduler fires crawl runs on fixed cadences: an hourly crawl at the
// configured per-source cap and a daily full crawl with a larger cap.
type Scheduler struct {
	cron     *cron.Cron
	triggers crawlTriggers
	logger   *zap.Logger

	crawlSpec     string
	fullCrawlSpec string
	maxCount      int
	fullMaxCount  int
}

func New(triggers crawlTriggers, logger *zap.Logger,
	crawlSpec, fullCrawlSpec string, maxCount, fullMaxCount int) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		triggers:      triggers,
		logger:        logger,
		crawlSpec:     crawlSpec,
		fullCrawlSpec: fullCrawlSpec,
		maxCount:      maxCount,
		fullMaxCount:  fullMaxCount,
	}
}

// Start registers both jobs and starts the cron engine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.crawlSpec, func() {
		s.logger.Info("scheduled crawl fired", zap.Int("max_count", s.maxCount))
		if err := s.triggers.TriggerAll(s.maxCount); err != nil {
			s.logger.Error("scheduled crawl submit failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.fullCrawlSpec, func() {
		s.logger.Info("scheduled full crawl fired", zap.Int("max_count", s.fullMaxCount))
		if err := s.triggers.TriggerAll(s.fullMaxCount); err != nil {
			s.logger.Error("scheduled full crawl submit failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("crawl_cron", s.crawlSpec), zap.String("full_crawl_cron", s.fullCrawlSpec))
	return nil
}

// Stop halts the cron engine; queued runs already on the pool still finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
