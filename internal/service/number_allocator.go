package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/csl-management-api/internal/models"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
)

type sequenceRepository interface {
	Increment(ctx context.Context, year int) (int64, error)
}

// NumberAllocator hands out per-year certificate numbers. When ctx carries a transaction
// the counter increment joins it, so a rolled-back issuance releases its number.
type NumberAllocator struct {
	repo    sequenceRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNumberAllocator constructs a NumberAllocator.
func NewNumberAllocator(repo sequenceRepository, metrics *MetricsService, logger *zap.Logger) *NumberAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NumberAllocator{repo: repo, metrics: metrics, logger: logger}
}

// Allocate reserves the next number for year.
func (a *NumberAllocator) Allocate(ctx context.Context, year int) (models.CslNumber, error) {
	if year < 1000 || year > 9999 {
		return models.CslNumber{}, appErrors.Clone(appErrors.ErrValidation, "issue year must have four digits")
	}
	start := time.Now()
	seq, err := a.repo.Increment(ctx, year)
	a.metrics.ObserveAllocation(time.Since(start))
	if err != nil {
		a.logger.Error("allocate certificate number", zap.Int("year", year), zap.Error(err))
		return models.CslNumber{}, appErrors.StorageUnavailable(err, "failed to allocate certificate number")
	}
	return models.CslNumber{Year: year, Sequence: seq}, nil
}
