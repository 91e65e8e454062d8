package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/constants"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 and logs the panic.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("panic", fmt.Sprint(r)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("trace_id", c.GetString(constants.ContextKeyTraceID)),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					apierrors.InternalError(c)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
