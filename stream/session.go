package stream

import (
	"context"
	"sync"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
)

// Transport is the outbound wire for one streaming session. The HTTP
// handler provides an SSE-backed implementation; tests substitute a buffer.
type Transport interface {
	// WriteFrame serializes one frame to the client and flushes it.
	// The write must be bounded: a stalled client returns an error
	// rather than blocking forever.
	WriteFrame(f event.Frame) error
}

// Session bridges registry pushes to the outbound wire stream for one
// connection. It owns exactly one bounded delivery queue; the registry owns
// the paired Connection record. Both are created and destroyed together.
type Session struct {
	conn  *Connection
	queue chan event.Frame

	closing   chan struct{}
	closeOnce sync.Once

	log *logger.Logger
}

func newSession(conn *Connection, queueSize int, log *logger.Logger) *Session {
	return &Session{
		conn:    conn,
		queue:   make(chan event.Frame, queueSize),
		closing: make(chan struct{}),
		log:     log,
	}
}

// ConnectionID returns the id of the paired connection record.
func (s *Session) ConnectionID() string {
	return s.conn.ID
}

// Connection returns the paired connection record for read-only inspection.
func (s *Session) Connection() *Connection {
	return s.conn
}

// Enqueue offers a frame to the session's delivery queue without blocking.
// It returns false when the session is not open or the queue is full; the
// caller counts the drop. Frames enqueued by successive calls are drained
// in order.
func (s *Session) Enqueue(f event.Frame) bool {
	if s.conn.State() != StateOpen {
		return false
	}
	select {
	case s.queue <- f:
		return true
	default:
		return false
	}
}

// Close transitions the session to closing. The drain loop exits on its
// next iteration; any in-flight write is abandoned, not retried. Safe to
// call multiple times and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.conn.setState(StateClosing)
		close(s.closing)
	})
}

// Closed reports whether the session has left the open state.
func (s *Session) Closed() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

// Run drains the queue onto the transport until the client disconnects,
// the session is closed, or a write fails. It returns once the session has
// transitioned to closing; the caller unregisters the pair afterwards.
func (s *Session) Run(ctx context.Context, t Transport) {
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			// Transport-level disconnect signal.
			s.log.Debug("Stream client disconnected", map[string]interface{}{
				logger.FieldConnectionID: s.conn.ID,
				"reason":                 ctx.Err().Error(),
			})
			return

		case <-s.closing:
			return

		case f := <-s.queue:
			if err := t.WriteFrame(f); err != nil {
				// Write failures are terminal and never surfaced
				// past the session.
				s.log.Debug("Stream write failed", map[string]interface{}{
					logger.FieldConnectionID: s.conn.ID,
					logger.FieldTopic:        f.Topic,
					logger.FieldError:        err.Error(),
				})
				return
			}
			s.conn.touch()
		}
	}
}
