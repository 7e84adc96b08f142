package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/handler"
	"github.com/noah-isme/lingua-tutor-api/internal/middleware"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
)

type handlers struct {
	auth         *handler.AuthHandler
	tutors       *handler.TutorHandler
	availability *handler.AvailabilityHandler
	slots        *handler.SlotHandler
	bookings     *handler.BookingHandler
	earnings     *handler.EarningsHandler
	ops          *handler.MetricsHandler
}

type routeDeps struct {
	prefix  string
	tokens  middleware.TokenValidator
	audit   middleware.AuditWriter
	logger  *zap.Logger
	docs    bool
	metrics bool
}

func registerRoutes(r *gin.Engine, h handlers, deps routeDeps) {
	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	if deps.metrics {
		r.GET("/metrics", h.ops.Prometheus)
	}
	if deps.docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.audit, deps.logger, action, resource)
	}
	student := middleware.RequireRoles(models.RoleStudent)
	tutor := middleware.RequireRoles(models.RoleTutor)

	api := r.Group(deps.prefix)

	auth := api.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)
	auth.GET("/me", middleware.JWT(deps.tokens), h.auth.Me)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.tokens))

	tutors := secured.Group("/tutors")
	tutors.GET("", h.tutors.List)
	tutors.GET("/specializations", h.tutors.Specializations)
	tutors.GET("/:id", h.tutors.Get)
	tutors.GET("/:id/reviews", h.tutors.Reviews)
	tutors.GET("/:id/slots", h.slots.Slots)
	tutors.GET("/:id/calendar", h.slots.Calendar)
	tutors.GET("/:id/bookable-dates", h.slots.BookableDates)

	own := secured.Group("/tutor", tutor)
	own.PUT("/profile", audit(models.AuditActionProfileUpdate, "tutor_profile"), h.tutors.UpdateProfile)
	own.GET("/availability", h.availability.Schedule)
	own.POST("/availability", audit(models.AuditActionWindowCreate, "availability_window"), h.availability.Add)
	own.DELETE("/availability/:id", audit(models.AuditActionWindowDelete, "availability_window"), h.availability.Remove)
	own.GET("/earnings", h.earnings.Summary)
	own.GET("/earnings/export", h.earnings.Export)

	bookings := secured.Group("/bookings")
	bookings.GET("", h.bookings.List)
	bookings.POST("", student, audit(models.AuditActionBookingCreate, "booking"), h.bookings.Create)
	bookings.GET("/:id", h.bookings.Get)
	bookings.POST("/:id/payment", student, audit(models.AuditActionPaymentCapture, "booking"), h.bookings.Pay)
	bookings.POST("/:id/complete", audit(models.AuditActionBookingComplete, "booking"), h.bookings.Complete)
	bookings.POST("/:id/cancel", audit(models.AuditActionBookingCancel, "booking"), h.bookings.Cancel)
	bookings.POST("/:id/review", student, audit(models.AuditActionReviewCreate, "review"), h.bookings.Review)
}
