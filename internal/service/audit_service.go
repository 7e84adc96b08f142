package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/pkg/jobs"
)

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService moves audit writes off the request path. Rows are retried by
// the worker pool and flushed on Close.
type AuditService struct {
	queue  *jobs.Queue[*models.AuditLog]
	logger *zap.Logger
}

// NewAuditService starts the audit worker pool.
func NewAuditService(ctx context.Context, store auditStore, logger *zap.Logger, cfg jobs.Config) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	queue := jobs.New("audit", func(ctx context.Context, entry *models.AuditLog) error {
		return store.CreateAuditLog(ctx, entry)
	}, cfg)
	queue.Start(ctx)
	return &AuditService{queue: queue, logger: logger}
}

// CreateAuditLog queues entry. It fails only when the buffer is full or the
// service is closed.
func (s *AuditService) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.queue.TryEnqueue(entry)
}

// Close flushes queued rows.
func (s *AuditService) Close() {
	s.queue.Stop()
}
