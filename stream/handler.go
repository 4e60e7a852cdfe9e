package stream

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/streamhub/errors"
	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
)

// sseTransport writes frames to an HTTP response in Server-Sent Events
// format. Each write is bounded by a deadline so a client that stops
// reading fails the write instead of blocking the session forever.
type sseTransport struct {
	w            http.ResponseWriter
	flusher      http.Flusher
	rc           *http.ResponseController
	writeTimeout time.Duration
}

func (t *sseTransport) WriteFrame(f event.Frame) error {
	if t.writeTimeout > 0 {
		// Not every writer supports deadlines (h2c wrappers, test
		// recorders); stream unbounded rather than fail those.
		if err := t.rc.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil && !stderrors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	if _, err := t.w.Write(f.Bytes()); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}

// Handler returns the gin handler for the stream endpoint:
//
//	GET /events/:channel_type/:resource_id
//
// The auth middleware must have set "user_id" on the context. The handler
// registers a session, streams SSE frames until the client disconnects,
// and unregisters the pair on exit.
func Handler(registry *Registry) gin.HandlerFunc {
	log := logger.WithComponent("stream-handler")

	return func(c *gin.Context) {
		channelType, err := ParseChannelType(c.Param("channel_type"))
		if err != nil {
			appErr := errors.InvalidInput("channel_type", err.Error())
			c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}
		key := NewChannelKey(channelType, c.Param("resource_id"))

		userID := c.GetString("user_id")
		if userID == "" {
			appErr := errors.Unauthorized("")
			c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			appErr := errors.StreamingUnsupported()
			c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}

		session, err := registry.Register(c.Request.Context(), key, userID)
		if err != nil {
			appErr := errors.AsAppError(err)
			c.JSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}
		defer registry.Unregister(session.ConnectionID())

		// Long-lived response: clear the server-level write deadline,
		// then bound each individual frame write instead.
		rc := http.NewResponseController(c.Writer)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			log.Warn("Could not clear write deadline", map[string]interface{}{
				logger.FieldConnectionID: session.ConnectionID(),
				logger.FieldError:        err.Error(),
			})
		}

		header := c.Writer.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no") // disable nginx buffering
		c.Status(http.StatusOK)

		transport := &sseTransport{
			w:            c.Writer,
			flusher:      flusher,
			rc:           rc,
			writeTimeout: registry.cfg.writeTimeout(),
		}

		connected := event.EncodeFrame(event.New(event.TopicConnected, gin.H{
			"connection_id": session.ConnectionID(),
			"channel_type":  key.Type,
			"resource_id":   key.ResourceID,
		}, "stream"))
		if err := transport.WriteFrame(connected); err != nil {
			return
		}

		session.Run(c.Request.Context(), transport)
	}
}
