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

type bookingService interface {
	Propose(ctx context.Context, actor *models.JWTClaims, req models.CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, *models.Payment, error)
	List(ctx context.Context, actor *models.JWTClaims, scope models.BookingScope) ([]models.BookingView, error)
	CapturePayment(ctx context.Context, actor *models.JWTClaims, bookingID string, req models.CapturePaymentRequest) (*models.Payment, error)
	Complete(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, bool, error)
}

type reviewCreator interface {
	Create(ctx context.Context, actor *models.JWTClaims, bookingID string, req models.CreateReviewRequest) (*models.Review, error)
}

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	bookings bookingService
	reviews  reviewCreator
}

// NewBookingHandler builds a BookingHandler.
func NewBookingHandler(bookings bookingService, reviews reviewCreator) *BookingHandler {
	return &BookingHandler{bookings: bookings, reviews: reviews}
}

// Create godoc
// @Summary Propose a booking
// @Description The interval must fit one availability window and overlap no confirmed booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateBookingRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.bookings.Propose(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResourceID(c, booking.ID)
	response.Created(c, dto.NewBookingResponse(*booking, nil))
}

// Get godoc
// @Summary Get a booking with its payment
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	view, payment, err := h.bookings.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.NewBookingViewResponse(*view)
	if payment != nil {
		resp.Payment = dto.NewBookingResponse(view.Booking, payment).Payment
	}
	response.OK(c, resp)
}

// List godoc
// @Summary List own bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param scope query string false "upcoming or past"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	views, err := h.bookings.List(c.Request.Context(), claimsFromContext(c), models.BookingScope(c.Query("scope")))
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.BookingResponse, 0, len(views))
	for _, v := range views {
		items = append(items, dto.NewBookingViewResponse(v))
	}
	response.OK(c, items)
}

// Pay godoc
// @Summary Capture the mock payment and confirm the booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.CapturePaymentRequest true "Card"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/payment [post]
func (h *BookingHandler) Pay(c *gin.Context) {
	var req models.CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	payment, err := h.bookings.CapturePayment(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Complete godoc
// @Summary Mark a confirmed booking completed
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	view, err := h.bookings.Complete(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBookingViewResponse(*view))
}

// Cancel godoc
// @Summary Cancel a booking and refund its payment
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	view, refunded, err := h.bookings.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewBookingViewResponse(*view), nil, map[string]interface{}{"refunded": refunded})
}

// Review godoc
// @Summary Review a completed booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.CreateReviewRequest true "Review"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/review [post]
func (h *BookingHandler) Review(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}
