package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-tutor-api/internal/middleware"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := scheduling.ParseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.WrapAs(err, appErrors.ErrMalformedInput, key+" must be YYYY-MM-DD")
	}
	return date, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, key+" must be an integer")
	}
	return v, nil
}

func floatQuery(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, key+" must be a number")
	}
	return &v, nil
}
