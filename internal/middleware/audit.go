package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
)

const auditResourceIDKey = "audit_resource_id"

// AuditWriter persists audit rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SetAuditResourceID names the resource a handler just created, for routes
// without an :id parameter.
func SetAuditResourceID(c *gin.Context, id string) {
	c.Set(auditResourceIDKey, id)
}

// Audit records one row per successful mutation. Write failures are logged
// and never change the response.
func Audit(writer AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if writer == nil || status >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			Status:    status,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := Claims(c); claims != nil {
			userID := claims.UserID
			entry.UserID = &userID
		}
		if id := c.GetString(auditResourceIDKey); id != "" {
			entry.ResourceID = &id
		} else if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}

		if err := writer.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
		}
	}
}
