// Package notify implements the delivery coordinator: the single entry
// point collaborators use to distribute an event. Every notification is
// published on the in-process bus; channel-addressed notifications are
// additionally pushed straight into the matching streaming sessions unless
// the caller disables the direct path to avoid duplicate delivery.
package notify

import (
	"context"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
	"github.com/skillsenselab/streamhub/stream"
)

// Publisher is the bus-side delivery path.
type Publisher interface {
	Publish(ev event.Event)
}

// Pusher is the direct registry delivery path.
type Pusher interface {
	Push(key stream.ChannelKey, f event.Frame) int
}

// Broadcaster forwards channel-addressed events to other service
// instances. Optional; nil means single-instance deployment.
type Broadcaster interface {
	Broadcast(ctx context.Context, key stream.ChannelKey, ev event.Event) error
}

// Coordinator fans a notification out to the bus and, when addressed to a
// channel, to the connection registry.
type Coordinator struct {
	bus      Publisher
	registry Pusher
	relay    Broadcaster
	log      *logger.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRelay attaches a cross-instance broadcaster.
func WithRelay(b Broadcaster) CoordinatorOption {
	return func(c *Coordinator) { c.relay = b }
}

// NewCoordinator creates a coordinator over the given delivery paths.
func NewCoordinator(bus Publisher, registry Pusher, log *logger.Logger, opts ...CoordinatorOption) *Coordinator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	c := &Coordinator{
		bus:      bus,
		registry: registry,
		log:      log.WithComponent("notify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// options holds per-call delivery settings.
type options struct {
	channel       *stream.ChannelKey
	correlationID string
	republish     bool
}

// Option configures a single Notify call.
type Option func(*options)

// WithChannel addresses the notification to a streaming delivery scope,
// enabling the direct push path in addition to the bus publish.
func WithChannel(key stream.ChannelKey) Option {
	return func(o *options) { o.channel = &key }
}

// WithCorrelationID links the event to a request or saga.
func WithCorrelationID(id string) Option {
	return func(o *options) { o.correlationID = id }
}

// WithoutRepublish suppresses the direct push even when a channel key is
// set. Use it when the caller has already arranged delivery to the channel
// and a second push would hand clients the same logical event twice.
func WithoutRepublish() Option {
	return func(o *options) { o.republish = false }
}

// Notify publishes the event on the bus and, for channel-addressed calls
// with republish enabled, pushes a wire-formatted view into every matching
// streaming session. Notify never fails: an empty recipient set is a
// valid, silent outcome, and no recipient error propagates to the caller.
func (c *Coordinator) Notify(ctx context.Context, topic string, payload any, source string, opts ...Option) event.Event {
	o := options{republish: true}
	for _, opt := range opts {
		opt(&o)
	}

	ev := event.New(topic, payload, source)
	if o.correlationID != "" {
		ev = ev.WithCorrelationID(o.correlationID)
	}

	c.bus.Publish(ev)

	if o.channel == nil || !o.republish {
		return ev
	}

	delivered := c.registry.Push(*o.channel, event.EncodeFrame(ev))
	c.log.Debug("Direct push", map[string]interface{}{
		logger.FieldTopic:   topic,
		logger.FieldChannel: o.channel.String(),
		logger.FieldTraceID: ev.TraceID,
		"delivered":         delivered,
	})

	if c.relay != nil {
		if err := c.relay.Broadcast(ctx, *o.channel, ev); err != nil {
			// Best effort: remote instances miss this event, local
			// delivery already happened.
			c.log.Warn("Relay broadcast failed", map[string]interface{}{
				logger.FieldTopic:   topic,
				logger.FieldChannel: o.channel.String(),
				logger.FieldError:   err.Error(),
			})
		}
	}
	return ev
}
