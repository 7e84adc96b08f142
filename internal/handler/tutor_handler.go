package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-tutor-api/internal/middleware"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/response"
)

type tutorService interface {
	List(ctx context.Context, filter models.TutorFilter) ([]models.TutorSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TutorSummary, error)
	Specializations(ctx context.Context) ([]string, error)
	UpdateProfile(ctx context.Context, actor *models.JWTClaims, req models.UpdateTutorProfileRequest) (*models.TutorProfile, error)
}

type reviewLister interface {
	ListForTutor(ctx context.Context, tutorID string) ([]models.ReviewView, error)
}

// TutorHandler serves tutor browsing and profile endpoints.
type TutorHandler struct {
	tutors  tutorService
	reviews reviewLister
}

// NewTutorHandler builds a TutorHandler.
func NewTutorHandler(tutors tutorService, reviews reviewLister) *TutorHandler {
	return &TutorHandler{tutors: tutors, reviews: reviews}
}

// List godoc
// @Summary List tutors
// @Tags Tutors
// @Produce json
// @Param min_price query number false "Minimum hourly rate"
// @Param max_price query number false "Maximum hourly rate"
// @Param min_rating query number false "Minimum average rating"
// @Param specialization query string false "Specialization contains"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutors [get]
func (h *TutorHandler) List(c *gin.Context) {
	var (
		filter = models.TutorFilter{Specialization: c.Query("specialization")}
		err    error
	)
	if filter.MinPrice, err = floatQuery(c, "min_price"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.MaxPrice, err = floatQuery(c, "max_price"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.MinRating, err = floatQuery(c, "min_rating"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Page, err = intQuery(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		response.Error(c, err)
		return
	}

	tutors, pagination, err := h.tutors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutors, pagination)
}

// Get godoc
// @Summary Get tutor profile
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id} [get]
func (h *TutorHandler) Get(c *gin.Context) {
	tutor, err := h.tutors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tutor)
}

// Specializations godoc
// @Summary List distinct specializations
// @Tags Tutors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tutors/specializations [get]
func (h *TutorHandler) Specializations(c *gin.Context) {
	items, err := h.tutors.Specializations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Reviews godoc
// @Summary List a tutor's reviews
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/reviews [get]
func (h *TutorHandler) Reviews(c *gin.Context) {
	items, err := h.reviews.ListForTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// UpdateProfile godoc
// @Summary Update own tutor profile
// @Tags Tutor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateTutorProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tutor/profile [put]
func (h *TutorHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateTutorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	profile, err := h.tutors.UpdateProfile(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResourceID(c, profile.ID)
	response.OK(c, profile)
}
