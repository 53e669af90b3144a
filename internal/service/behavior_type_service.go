package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type behaviorTypeRepository interface {
	List(ctx context.Context, category models.BehaviorCategory) ([]models.BehaviorType, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// BehaviorTypeService reads the behavior catalog with a cache-aside layer;
// the catalog changes rarely enough that a short TTL is plenty.
type BehaviorTypeService struct {
	repo   behaviorTypeRepository
	cache  catalogCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewBehaviorTypeService constructs the service. cache may be nil.
func NewBehaviorTypeService(repo behaviorTypeRepository, cache catalogCache, ttl time.Duration, logger *zap.Logger) *BehaviorTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BehaviorTypeService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns catalog entries, optionally filtered by category.
func (s *BehaviorTypeService) List(ctx context.Context, category string) ([]models.BehaviorType, error) {
	cat := models.BehaviorCategory(category)
	if category != "" && !cat.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown behavior category")
	}

	key := fmt.Sprintf("catalog:behavior_types:%s", categoryKey(cat))
	if s.cache != nil {
		var cached []models.BehaviorType
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	types, err := s.repo.List(ctx, cat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behavior types")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, types, s.ttl); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return types, nil
}

func categoryKey(cat models.BehaviorCategory) string {
	if cat == "" {
		return "all"
	}
	return string(cat)
}
