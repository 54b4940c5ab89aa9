package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	"github.com/edukasys/sfa-records-api/pkg/jobs"
)

type mockActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	err     error
	done    chan struct{}
}

func (m *mockActivityRepo) Insert(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		defer close(m.done)
		m.done = nil
	}
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, len(m.entries), nil
}

func TestActivityServiceRecordWritesAsync(t *testing.T) {
	repo := &mockActivityRepo{done: make(chan struct{})}
	done := repo.done
	svc := NewActivityService(repo, jobs.QueueConfig{Workers: 1, BufferSize: 4}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(context.Background(), lifecycle.Entry{
		AdminID:    1,
		Action:     "student.archive",
		EntityKind: "student",
		EntityID:   42,
		Details:    "Student S-001 moved to archive",
		OccurredAt: time.Now().UTC(),
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("activity entry was never written")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "student.archive", repo.entries[0].Action)
	assert.Equal(t, int64(42), repo.entries[0].EntityID)
}

func TestActivityServiceRecordNeverFailsCaller(t *testing.T) {
	repo := &mockActivityRepo{err: errors.New("insert failed"), done: make(chan struct{})}
	done := repo.done
	svc := NewActivityService(repo, jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 1, RetryDelay: time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	// Record has no error return: a failing repository is invisible here.
	svc.Record(context.Background(), lifecycle.Entry{Action: "student.create", EntityKind: "student"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestActivityServiceRecordBeforeStartDropsSilently(t *testing.T) {
	repo := &mockActivityRepo{}
	svc := NewActivityService(repo, jobs.QueueConfig{Workers: 1, BufferSize: 1}, nil)

	// Queue not started: the entry is dropped, the caller is unaffected.
	svc.Record(context.Background(), lifecycle.Entry{Action: "student.create", EntityKind: "student"})

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.entries)
}
