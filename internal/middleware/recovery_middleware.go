package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
)

// RecoveryMiddleware turns a handler panic into a logged 500 envelope.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", GetRequestID(c)),
				)

				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, responses.Envelope{
						Success: false,
						Message: "Internal Server Error",
						Error:   responses.GenericErrorDetail,
					})
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
