package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/repository"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

// CacheService wraps the cache repository with logging and metrics.
type CacheService struct {
	cacheRepo *repository.CacheRepository
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCacheService builds a cache service. cacheRepo may be nil when Redis is disabled.
func NewCacheService(cacheRepo *repository.CacheRepository, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		cacheRepo: cacheRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// Enabled reports whether a cache backend is configured.
func (s *CacheService) Enabled() bool {
	return s != nil && s.cacheRepo != nil
}

// Get fetches a cached value into dest. Returns ErrCacheMiss when absent.
func (s *CacheService) Get(ctx context.Context, key string, dest any) error {
	if !s.Enabled() {
		return appErrors.ErrCacheMiss
	}
	start := time.Now()
	err := s.cacheRepo.Get(ctx, key, dest)
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	}
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	return nil
}

// Set stores a value with the given TTL. Failures are logged, not surfaced.
func (s *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	if err := s.cacheRepo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
}

// Invalidate removes keys matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.cacheRepo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
