package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-tutor-api/internal/dto"
	"github.com/noah-isme/lingua-tutor-api/internal/middleware"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/response"
)

type availabilityService interface {
	AddWindow(ctx context.Context, actor *models.JWTClaims, req models.CreateAvailabilityRequest) (*models.AvailabilityWindow, error)
	RemoveWindow(ctx context.Context, actor *models.JWTClaims, windowID string) error
	MySchedule(ctx context.Context, actor *models.JWTClaims) ([]dto.DaySchedule, error)
}

// AvailabilityHandler manages the calling tutor's weekly windows.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds an AvailabilityHandler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Schedule godoc
// @Summary Own weekly availability
// @Tags Tutor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutor/availability [get]
func (h *AvailabilityHandler) Schedule(c *gin.Context) {
	schedule, err := h.service.MySchedule(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// Add godoc
// @Summary Add an availability window
// @Description Windows may touch but not overlap on the same weekday (0 = Monday)
// @Tags Tutor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateAvailabilityRequest true "Window"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tutor/availability [post]
func (h *AvailabilityHandler) Add(c *gin.Context) {
	var req models.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	window, err := h.service.AddWindow(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResourceID(c, window.ID)
	response.Created(c, window)
}

// Remove godoc
// @Summary Remove an availability window
// @Tags Tutor
// @Security BearerAuth
// @Param id path string true "Window ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor/availability/{id} [delete]
func (h *AvailabilityHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveWindow(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
