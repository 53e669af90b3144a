package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type mockTypeRepo struct {
	types []models.BehaviorType
	calls int
}

func (m *mockTypeRepo) List(_ context.Context, category models.BehaviorCategory) ([]models.BehaviorType, error) {
	m.calls++
	if category == "" {
		return m.types, nil
	}
	var out []models.BehaviorType
	for _, bt := range m.types {
		if bt.Category == category {
			out = append(out, bt)
		}
	}
	return out, nil
}

type mockCache struct {
	entries map[string][]byte
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func TestBehaviorTypeServiceCacheMissThenHit(t *testing.T) {
	repo := &mockTypeRepo{types: []models.BehaviorType{
		{ID: 10, Name: "helped classmate", Category: models.BehaviorCategoryPositive, Score: 10},
		{ID: 11, Name: "late to class", Category: models.BehaviorCategoryNegative, Score: -5},
	}}
	cache := newMockCache()
	svc := NewBehaviorTypeService(repo, cache, time.Minute, nil)

	types, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, types, 2)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.entries, "catalog:behavior_types:all")

	// Second read must come from the cache.
	types, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, types, 2)
	assert.Equal(t, 1, repo.calls)
}

func TestBehaviorTypeServiceCategoryFilterKeysSeparately(t *testing.T) {
	repo := &mockTypeRepo{types: []models.BehaviorType{
		{ID: 10, Name: "helped classmate", Category: models.BehaviorCategoryPositive, Score: 10},
		{ID: 11, Name: "late to class", Category: models.BehaviorCategoryNegative, Score: -5},
	}}
	cache := newMockCache()
	svc := NewBehaviorTypeService(repo, cache, time.Minute, nil)

	positive, err := svc.List(context.Background(), "positive")
	require.NoError(t, err)
	require.Len(t, positive, 1)
	assert.Equal(t, models.BehaviorCategoryPositive, positive[0].Category)
	assert.Contains(t, cache.entries, "catalog:behavior_types:positive")

	negative, err := svc.List(context.Background(), "negative")
	require.NoError(t, err)
	require.Len(t, negative, 1)
	assert.Equal(t, 2, repo.calls)
}

func TestBehaviorTypeServiceUnknownCategory(t *testing.T) {
	svc := NewBehaviorTypeService(&mockTypeRepo{}, nil, time.Minute, nil)

	_, err := svc.List(context.Background(), "neutral")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBehaviorTypeServiceWorksWithoutCache(t *testing.T) {
	repo := &mockTypeRepo{types: []models.BehaviorType{
		{ID: 10, Name: "helped classmate", Category: models.BehaviorCategoryPositive, Score: 10},
	}}
	svc := NewBehaviorTypeService(repo, nil, 0, nil)

	types, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, types, 1)
}
