package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

const (
	logMsgRequestHandled = "http: request handled"
	logAttrMethod        = "method"
	logAttrPath          = "path"
	logAttrStatusCode    = "status_code"
	logAttrDurationMS    = "duration_ms"
	logAttrRequestID     = "request_id"
	logAttrReplayed      = "replayed"
	logAttrError         = "error"
)

// requestLog assigns a request id and logs every handled request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		if s.logger == nil {
			return
		}

		s.logger.Info(logMsgRequestHandled,
			logAttrMethod, c.Request.Method,
			logAttrPath, c.Request.URL.Path,
			logAttrStatusCode, c.Writer.Status(),
			logAttrDurationMS, lending.ToMilliseconds(time.Since(start)),
			logAttrRequestID, requestID,
			logAttrReplayed, c.Writer.Header().Get(ReplayedHeader) != "",
		)
	}
}
