package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-tutor-api/internal/dto"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/service"
	"github.com/noah-isme/lingua-tutor-api/pkg/response"
)

type earningsService interface {
	Summary(ctx context.Context, actor *models.JWTClaims) (*models.EarningsSummary, error)
	Export(ctx context.Context, actor *models.JWTClaims, format string) (*service.EarningsFile, error)
}

// EarningsHandler serves the tutor's payouts.
type EarningsHandler struct {
	service earningsService
}

// NewEarningsHandler builds an EarningsHandler.
func NewEarningsHandler(service earningsService) *EarningsHandler {
	return &EarningsHandler{service: service}
}

// Summary godoc
// @Summary Total and monthly payouts
// @Tags Tutor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutor/earnings [get]
func (h *EarningsHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewEarningsResponse(summary))
}

// Export godoc
// @Summary Download the earnings statement
// @Tags Tutor
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tutor/earnings/export [get]
func (h *EarningsHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), claimsFromContext(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
