package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type pendingDocumentEnqueuer interface {
	EnqueuePendingDocuments(ctx context.Context, minAge time.Duration) (int, error)
}

// DocumentSweeper periodically re-queues certificates whose document was never generated,
// covering crashes between commit and render.
type DocumentSweeper struct {
	cron     *cron.Cron
	enqueuer pendingDocumentEnqueuer
	schedule string
	minAge   time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDocumentSweeper constructs a sweeper running on a cron schedule such as "@every 5m".
func NewDocumentSweeper(enqueuer pendingDocumentEnqueuer, schedule string, minAge time.Duration, logger *zap.Logger) *DocumentSweeper {
	if schedule == "" {
		schedule = "@every 5m"
	}
	if minAge <= 0 {
		minAge = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentSweeper{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		enqueuer: enqueuer,
		schedule: schedule,
		minAge:   minAge,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *DocumentSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("schedule document sweeper %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("document sweeper started", zap.String("schedule", s.schedule), zap.Duration("min_age", s.minAge))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *DocumentSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass and returns the number of queued certificates.
func (s *DocumentSweeper) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	queued, err := s.enqueuer.EnqueuePendingDocuments(ctx, s.minAge)
	if err != nil {
		s.logger.Error("document sweep failed", zap.Error(err))
		return 0
	}
	if queued > 0 {
		s.logger.Info("document sweep queued renders", zap.Int("queued", queued))
	}
	return queued
}
