package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/household-api/internal/constants"
)

// TraceID tags each request with a trace id. A well-formed id sent by the
// client is kept.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(constants.TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Set(constants.ContextKeyTraceID, traceID)
		c.Writer.Header().Set(constants.TraceIDHeader, traceID)
		c.Next()
	}
}
