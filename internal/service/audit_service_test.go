package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/pkg/jobs"
)

type auditStoreStub struct {
	mu       sync.Mutex
	failures int
	rows     []*models.AuditLog
}

func (s *auditStoreStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("db unavailable")
	}
	s.rows = append(s.rows, log)
	return nil
}

func (s *auditStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func TestAuditServiceFlushesOnClose(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(context.Background(), store, nil, jobs.Config{Workers: 2})

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionBookingCreate}))
	}
	svc.Close()

	assert.Equal(t, 5, store.count())
	assert.Error(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{}))
}

func TestAuditServiceRetriesFailedWrites(t *testing.T) {
	store := &auditStoreStub{failures: 2}
	svc := NewAuditService(context.Background(), store, nil, jobs.Config{MaxRetries: 3, RetryDelay: time.Millisecond})

	require.NoError(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionBookingCancel}))
	require.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, time.Millisecond)
	svc.Close()
}
