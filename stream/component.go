package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/skillsenselab/streamhub/component"
)

// Component wraps the registry and heartbeat monitor as a
// lifecycle-managed component.
type Component struct {
	registry *Registry
	monitor  *Monitor
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the stream component around an existing registry.
func NewComponent(registry *Registry, monitor *Monitor) *Component {
	return &Component{registry: registry, monitor: monitor}
}

// Registry returns the underlying connection registry.
func (c *Component) Registry() *Registry { return c.registry }

// Name returns the component name.
func (c *Component) Name() string { return "stream-hub" }

// Start launches the heartbeat monitor.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.monitor.Run()
	}()
	return nil
}

// Stop halts the monitor and closes every open session immediately.
// Queued events are discarded; streamed events are not durable.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false

	c.monitor.Stop()
	c.wg.Wait()
	c.registry.CloseAll()
	return nil
}

// Health reports the number of open streaming connections.
func (c *Component) Health(_ context.Context) component.Health {
	stats := c.registry.Stats()
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d connections open", stats.Active),
	}
}
