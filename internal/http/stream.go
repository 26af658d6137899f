package http

import (
	"fmt"
	"net/http"
	"time"

	"smartcare/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamKeepAlive = 25 * time.Second

// handleStream pushes every new reading of kind as an SSE "data:" line,
// optionally restricted to the deviceId query parameter.
func (s *Server) handleStream(kind pkg.ReadingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Feed == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live readings are not available"})
			return
		}
		deviceID := c.Query("deviceId")
		events, unsubscribe := s.Feed.Subscribe(kind, deviceID)
		defer unsubscribe()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		fmt.Fprintf(c.Writer, "event: connected\ndata: {\"kind\":%q}\n\n", kind)
		c.Writer.Flush()
		s.Logger.Debug("stream opened", zap.String("kind", string(kind)), zap.String("device_id", deviceID))

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-c.Request.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(c.Writer, "data: %s\n\n", ev.Reading)
				c.Writer.Flush()
			case <-ticker.C:
				fmt.Fprint(c.Writer, ": ping\n\n")
				c.Writer.Flush()
			}
		}
	}
}
