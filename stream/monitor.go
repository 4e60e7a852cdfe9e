package stream

import (
	"time"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
)

// Monitor periodically sweeps all registered sessions: sessions idle
// longer than the heartbeat interval get a keep-alive frame enqueued, and
// sessions whose client is gone are reaped from the registry. A failed
// heartbeat write is handled by the session loop exactly like any other
// write failure.
type Monitor struct {
	registry *Registry
	interval time.Duration
	period   time.Duration
	log      *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a heartbeat monitor for the registry.
func NewMonitor(registry *Registry, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Monitor{
		registry: registry,
		interval: registry.cfg.heartbeatInterval(),
		period:   registry.cfg.monitorPeriod(),
		log:      log.WithComponent("heartbeat"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run sweeps on a fixed period until Stop is called. Run it in a goroutine.
func (m *Monitor) Run() {
	defer close(m.done)

	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// Stop halts the monitor and waits for the sweep loop to exit.
func (m *Monitor) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
}

// sweep visits every session once. Iteration never blocks on any single
// session: heartbeats go through the same non-blocking queues as regular
// events, so one stalled client cannot starve the others.
func (m *Monitor) sweep() {
	now := time.Now()
	for _, session := range m.registry.Sessions() {
		if session.Closed() {
			m.registry.Unregister(session.ConnectionID())
			continue
		}

		// Skip if a regular event was written more recently than the
		// heartbeat interval.
		if now.Sub(session.Connection().LastActiveAt()) < m.interval {
			continue
		}

		frame := event.HeartbeatFrame(now.UTC().Format(time.RFC3339))
		if !session.Enqueue(frame) {
			m.log.Debug("Heartbeat enqueue skipped", map[string]interface{}{
				logger.FieldConnectionID: session.ConnectionID(),
			})
		}
	}
}
