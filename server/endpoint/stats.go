package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/streamhub/bus"
	"github.com/skillsenselab/streamhub/stream"
)

// Stats returns a handler exposing the delivery pipeline's counters:
// active streaming connections per channel type plus the event bus's
// delivery and error statistics.
func Stats(b *bus.Bus, registry *stream.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"stream":    registry.Stats(),
			"bus":       b.Stats(),
		})
	}
}
