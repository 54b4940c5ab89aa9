package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type fixedCounter struct {
	active   int
	inactive int
	archived int
}

func (f fixedCounter) CountByStatus(ctx context.Context, status lifecycle.Status) (int, error) {
	if status == lifecycle.StatusActive {
		return f.active, nil
	}
	return f.inactive, nil
}

func (f fixedCounter) CountArchived(ctx context.Context) (int, error) {
	return f.archived, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestDashboardServiceStatsCountsEveryKind(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{
		Students:    fixedCounter{active: 10, inactive: 2, archived: 3},
		Faculty:     fixedCounter{active: 4, inactive: 1, archived: 0},
		Courses:     fixedCounter{active: 6, inactive: 0, archived: 1},
		Departments: fixedCounter{active: 5, inactive: 0, archived: 0},
	})

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.KindCounts{Active: 10, Inactive: 2, Archived: 3}, stats.Students)
	assert.Equal(t, models.KindCounts{Active: 4, Inactive: 1}, stats.Faculty)
	assert.Equal(t, models.KindCounts{Active: 6, Archived: 1}, stats.Courses)
	assert.Equal(t, models.KindCounts{Active: 5}, stats.Departments)
}

func TestDashboardServiceStatsServedFromCache(t *testing.T) {
	cacheRepo := &memoryCacheRepo{entries: map[string][]byte{}}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewDashboardService(DashboardServiceParams{
		Students:    fixedCounter{active: 1},
		Faculty:     fixedCounter{},
		Courses:     fixedCounter{},
		Departments: fixedCounter{},
		Cache:       cacheSvc,
	})

	_, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, stats.Students.Active)

	svc.Invalidate(context.Background())
	_, hit, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}
