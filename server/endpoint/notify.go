package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/streamhub/errors"
	"github.com/skillsenselab/streamhub/notify"
	"github.com/skillsenselab/streamhub/stream"
)

// NotifyRequest is the publish call exposed to platform collaborators that
// run out of process (message routing, conversation services).
type NotifyRequest struct {
	Topic      string             `json:"topic" binding:"required"`
	Payload    any                `json:"payload"`
	Source     string             `json:"source" binding:"required"`
	ChannelKey *stream.ChannelKey `json:"channel_key,omitempty"`
	// Republish controls the direct push path; defaults to true.
	Republish *bool `json:"republish,omitempty"`
}

// Notify returns the handler for the internal publish endpoint. Publishing
// is fire and forget: the response reports only that the event was
// accepted, never per-recipient outcomes.
func Notify(coordinator *notify.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NotifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.InvalidInput("", err.Error())
			c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}

		var opts []notify.Option
		if req.ChannelKey != nil {
			if _, err := stream.ParseChannelType(string(req.ChannelKey.Type)); err != nil {
				appErr := errors.InvalidInput("channel_key", err.Error())
				c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
				return
			}
			opts = append(opts, notify.WithChannel(*req.ChannelKey))
		}
		if req.Republish != nil && !*req.Republish {
			opts = append(opts, notify.WithoutRepublish())
		}
		if id := c.GetString("request_id"); id != "" {
			opts = append(opts, notify.WithCorrelationID(id))
		}

		ev := coordinator.Notify(c.Request.Context(), req.Topic, req.Payload, req.Source, opts...)
		c.JSON(http.StatusAccepted, gin.H{
			"trace_id": ev.TraceID,
		})
	}
}
