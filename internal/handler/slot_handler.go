package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-tutor-api/internal/dto"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/response"
)

type slotService interface {
	Resolve(ctx context.Context, tutorID string, date time.Time) ([]scheduling.Interval, error)
	Calendar(ctx context.Context, tutorID string, from time.Time, days int) ([]dto.DaySlots, error)
	BookableDates(ctx context.Context, tutorID string, from time.Time, days int) ([]dto.BookableDate, error)
}

// SlotHandler exposes the slot resolver.
type SlotHandler struct {
	service slotService
}

// NewSlotHandler builds a SlotHandler.
func NewSlotHandler(service slotService) *SlotHandler {
	return &SlotHandler{service: service}
}

// Slots godoc
// @Summary Free slots of a tutor on one date
// @Tags Slots
// @Produce json
// @Param id path string true "Tutor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id}/slots [get]
func (h *SlotHandler) Slots(c *gin.Context) {
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	if date.IsZero() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}

	slots, err := h.service.Resolve(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DaySlots{
		Date:    scheduling.FormatDate(date),
		DayName: scheduling.DayName(scheduling.DayOfWeek(date)),
		Slots:   dto.NewSlots(slots),
	})
}

// Calendar godoc
// @Summary Browse free slots over consecutive days
// @Description Days without free slots are omitted
// @Tags Slots
// @Produce json
// @Param id path string true "Tutor ID"
// @Param from query string false "First date (defaults to today)"
// @Param days query int false "Number of days (default 7)"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/calendar [get]
func (h *SlotHandler) Calendar(c *gin.Context) {
	from, days, ok := rangeQuery(c)
	if !ok {
		return
	}
	items, err := h.service.Calendar(c.Request.Context(), c.Param("id"), from, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// BookableDates godoc
// @Summary Dates whose weekday has availability
// @Tags Slots
// @Produce json
// @Param id path string true "Tutor ID"
// @Param from query string false "First date (defaults to today)"
// @Param days query int false "Number of days (default 14)"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/bookable-dates [get]
func (h *SlotHandler) BookableDates(c *gin.Context) {
	from, days, ok := rangeQuery(c)
	if !ok {
		return
	}
	items, err := h.service.BookableDates(c.Request.Context(), c.Param("id"), from, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

func rangeQuery(c *gin.Context) (time.Time, int, bool) {
	from, err := dateQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return time.Time{}, 0, false
	}
	days, err := intQuery(c, "days")
	if err != nil {
		response.Error(c, err)
		return time.Time{}, 0, false
	}
	return from, days, true
}
