package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
	"go.uber.org/zap"
)

// ErrorHandler renders the last handler error as an RFC 9457 problem.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		problem := domain.FromError(c.Errors.Last().Err)
		if problem.Log != nil {
			fields := []zap.Field{zap.Error(problem.Log), zap.String("path", c.Request.URL.Path)}
			if id := c.GetString(RequestIDKey); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if problem.Status >= http.StatusInternalServerError {
				logger.Error("Request failed", fields...)
			} else {
				logger.Warn("Request failed", fields...)
			}
		}

		c.Header("Content-Type", "application/problem+json")
		c.JSON(problem.Status, problem)
		c.Abort()
	}
}
