package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vitingo/advance-workflow/internal/auth"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/infrastructure/backend"
)

const (
	ctxKeyUser      = "user"
	ctxKeyRequestID = "request_id"
)

// RequestID reuses X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs one line per request
func LoggingMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", method,
			"path", path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxKeyRequestID),
		}
		if user := currentUser(c); user != nil {
			kv = append(kv, "user_id", user.ID)
		}

		switch {
		case status >= 500:
			logger.Errorw("HTTP request", kv...)
		case status >= 400:
			logger.Warnw("HTTP request", kv...)
		default:
			logger.Infow("HTTP request", kv...)
		}
	}
}

// AuthMiddleware verifies the bearer token, stores the user and forwards
// the token to backend calls made for this request
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			// file previews are opened in a new tab without headers
			token = c.Query("token")
		}

		user, err := verifier.Parse(token)
		if err != nil {
			msg := auth.ErrInvalidToken.Error()
			if errors.Is(err, auth.ErrMissingToken) {
				msg = auth.ErrMissingToken.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: msg})
			return
		}

		c.Set(ctxKeyUser, user)
		ctx := entity.ContextWithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(backend.WithToken(ctx, token))
		c.Next()
	}
}

func currentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}
