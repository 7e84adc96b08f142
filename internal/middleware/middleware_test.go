package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return s.claims, nil
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

type requestRecorder struct {
	path   string
	status int
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.path = path
	r.status = status
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newRouter()
	student := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	r.GET("/me", JWT(stubValidator{claims: student}), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer bad").Code)

	w := serve(r, http.MethodGet, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	r := newRouter()
	r.GET("/tutors", OptionalJWT(stubValidator{claims: &models.JWTClaims{UserID: "u1"}}), func(c *gin.Context) {
		if Claims(c) == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, Claims(c).UserID)
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/tutors", "Bearer bad").Body.String())
	assert.Equal(t, "u1", serve(r, http.MethodGet, "/tutors", "Bearer good").Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()
	tutor := &models.JWTClaims{UserID: "u2", Role: models.RoleTutor}
	r.POST("/bookings", JWT(stubValidator{claims: tutor}), RequireRoles(models.RoleStudent), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.POST("/tutor/availability", JWT(stubValidator{claims: tutor}), RequireRoles(models.RoleTutor), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/open", RequireRoles(models.RoleStudent), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/bookings", "Bearer good").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/tutor/availability", "Bearer good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/open", "").Code)
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	r := newRouter()
	recorder := &auditRecorder{}
	student := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	r.Use(JWT(stubValidator{claims: student}))
	r.POST("/bookings", Audit(recorder, nil, models.AuditActionBookingCreate, "booking"), func(c *gin.Context) {
		SetAuditResourceID(c, "b-new")
		c.Status(http.StatusCreated)
	})
	r.POST("/bookings/:id/cancel", Audit(recorder, nil, models.AuditActionBookingCancel, "booking"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/bookings/:id/complete", Audit(recorder, nil, models.AuditActionBookingComplete, "booking"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	serve(r, http.MethodPost, "/bookings", "Bearer good")
	serve(r, http.MethodPost, "/bookings/b1/cancel", "Bearer good")
	serve(r, http.MethodPost, "/bookings/b1/complete", "Bearer good")

	require.Len(t, recorder.logs, 2)
	created := recorder.logs[0]
	assert.Equal(t, models.AuditActionBookingCreate, created.Action)
	assert.Equal(t, "b-new", *created.ResourceID)
	assert.Equal(t, "u1", *created.UserID)
	assert.Equal(t, http.StatusCreated, created.Status)
	assert.Equal(t, "b1", *recorder.logs[1].ResourceID)
}

func TestAuditFailureDoesNotChangeResponse(t *testing.T) {
	r := newRouter()
	recorder := &auditRecorder{err: errors.New("db down")}
	r.DELETE("/tutor/availability/:id", Audit(recorder, nil, models.AuditActionWindowDelete, "availability"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodDelete, "/tutor/availability/w1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, recorder.logs, 1)
	assert.Nil(t, recorder.logs[0].UserID)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := newRouter()
	observer := &requestRecorder{}
	r.Use(Metrics(observer))
	r.GET("/tutors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/tutors/abc", "")
	assert.Equal(t, "/tutors/:id", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)

	serve(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, "unmatched", observer.path)
	assert.Equal(t, http.StatusNotFound, observer.status)
}
