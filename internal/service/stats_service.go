package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/csl-management-api/internal/models"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
)

const (
	statsCacheKeyPrefix = "cache:certificates:stats"
	statsCachePattern   = statsCacheKeyPrefix + ":*"
)

type certificateStatsRepository interface {
	YearStats(ctx context.Context, year int) (*models.CertificateStats, error)
}

type sequenceReader interface {
	Current(ctx context.Context, year int) (int64, error)
}

// StatsService serves per-year issuance statistics through the cache.
type StatsService struct {
	repo      certificateStatsRepository
	sequences sequenceReader
	cache     *CacheService
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatsService constructs a StatsService. A nil or disabled cache reads straight
// from the repository.
func NewStatsService(repo certificateStatsRepository, sequences sequenceReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, sequences: sequences, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// YearStats returns statistics for year; zero means the current year.
func (s *StatsService) YearStats(ctx context.Context, year int) (*models.CertificateStats, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	if year < 1000 || year > 9999 {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "year must have four digits"), "year", "invalid")
	}

	var stats models.CertificateStats
	err := s.cache.Load(ctx, statsCacheKey(year), s.ttl, &stats, func(ctx context.Context) error {
		loaded, err := s.repo.YearStats(ctx, year)
		if err != nil {
			return appErrors.StorageUnavailable(err, "failed to load certificate statistics")
		}
		last, err := s.sequences.Current(ctx, year)
		if err != nil {
			return appErrors.StorageUnavailable(err, "failed to load certificate statistics")
		}
		stats = *loaded
		stats.LastSequence = last
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Invalidate drops every cached statistics entry.
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
		s.logger.Warn("invalidate certificate stats", zap.Error(err))
	}
}

func statsCacheKey(year int) string {
	return fmt.Sprintf("%s:%d", statsCacheKeyPrefix, year)
}
