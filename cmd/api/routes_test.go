package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/handler"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "student":
		return &models.JWTClaims{UserID: "u-student", Role: models.RoleStudent}, nil
	case "tutor":
		return &models.JWTClaims{UserID: "u-tutor", Role: models.RoleTutor}, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newTestRouter(metrics bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers{
		auth:         handler.NewAuthHandler(nil),
		tutors:       handler.NewTutorHandler(nil, nil),
		availability: handler.NewAvailabilityHandler(nil),
		slots:        handler.NewSlotHandler(nil),
		bookings:     handler.NewBookingHandler(nil, nil),
		earnings:     handler.NewEarningsHandler(nil),
		ops:          handler.NewMetricsHandler(nil, nil),
	}
	registerRoutes(r, h, routeDeps{prefix: "/api/v1", tokens: tokenStub{}, metrics: metrics})
	return r
}

func TestRegisterRoutesExposesApi(t *testing.T) {
	r := newTestRouter(true)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
		"GET /api/v1/tutors",
		"GET /api/v1/tutors/specializations",
		"GET /api/v1/tutors/:id",
		"GET /api/v1/tutors/:id/reviews",
		"GET /api/v1/tutors/:id/slots",
		"GET /api/v1/tutors/:id/calendar",
		"GET /api/v1/tutors/:id/bookable-dates",
		"PUT /api/v1/tutor/profile",
		"GET /api/v1/tutor/availability",
		"POST /api/v1/tutor/availability",
		"DELETE /api/v1/tutor/availability/:id",
		"GET /api/v1/tutor/earnings",
		"GET /api/v1/tutor/earnings/export",
		"GET /api/v1/bookings",
		"POST /api/v1/bookings",
		"GET /api/v1/bookings/:id",
		"POST /api/v1/bookings/:id/payment",
		"POST /api/v1/bookings/:id/complete",
		"POST /api/v1/bookings/:id/cancel",
		"POST /api/v1/bookings/:id/review",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestRegisterRoutesWithoutMetrics(t *testing.T) {
	r := newTestRouter(false)
	for _, route := range r.Routes() {
		assert.NotEqual(t, "/metrics", route.Path)
	}
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	r := newTestRouter(false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tutors", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutors", nil)
	req.Header.Set("Authorization", "Bearer forged")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGatedRoutes(t *testing.T) {
	r := newTestRouter(false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutor/earnings", nil)
	req.Header.Set("Authorization", "Bearer student")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer tutor")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
