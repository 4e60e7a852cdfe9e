package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments recorded by the delivery pipeline.
// A nil *Metrics is valid and records nothing, so components can take the
// instruments optionally.
type Metrics struct {
	eventsPublished metric.Int64Counter
	eventsMatched   metric.Int64Counter
	handlerErrors   metric.Int64Counter
	framesDelivered metric.Int64Counter
	framesDropped   metric.Int64Counter
	activeStreams   metric.Int64UpDownCounter
}

// NewMetrics creates the instrument set on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/skillsenselab/streamhub")

	eventsPublished, err := meter.Int64Counter("bus.events.published",
		metric.WithDescription("Events published on the bus"))
	if err != nil {
		return nil, fmt.Errorf("creating bus.events.published: %w", err)
	}
	eventsMatched, err := meter.Int64Counter("bus.events.matched",
		metric.WithDescription("Subscription matches across all publishes"))
	if err != nil {
		return nil, fmt.Errorf("creating bus.events.matched: %w", err)
	}
	handlerErrors, err := meter.Int64Counter("bus.handler.errors",
		metric.WithDescription("Subscriber handler panics recovered"))
	if err != nil {
		return nil, fmt.Errorf("creating bus.handler.errors: %w", err)
	}
	framesDelivered, err := meter.Int64Counter("stream.frames.delivered",
		metric.WithDescription("Frames enqueued to streaming sessions"))
	if err != nil {
		return nil, fmt.Errorf("creating stream.frames.delivered: %w", err)
	}
	framesDropped, err := meter.Int64Counter("stream.frames.dropped",
		metric.WithDescription("Frames dropped due to saturated session queues"))
	if err != nil {
		return nil, fmt.Errorf("creating stream.frames.dropped: %w", err)
	}
	activeStreams, err := meter.Int64UpDownCounter("stream.connections.active",
		metric.WithDescription("Currently open streaming connections"))
	if err != nil {
		return nil, fmt.Errorf("creating stream.connections.active: %w", err)
	}

	return &Metrics{
		eventsPublished: eventsPublished,
		eventsMatched:   eventsMatched,
		handlerErrors:   handlerErrors,
		framesDelivered: framesDelivered,
		framesDropped:   framesDropped,
		activeStreams:   activeStreams,
	}, nil
}

// EventPublished records one bus publish.
func (m *Metrics) EventPublished(ctx context.Context) {
	if m == nil {
		return
	}
	m.eventsPublished.Add(ctx, 1)
}

// EventsMatched records subscription matches for one publish.
func (m *Metrics) EventsMatched(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.eventsMatched.Add(ctx, n)
}

// HandlerError records one recovered handler panic.
func (m *Metrics) HandlerError(ctx context.Context) {
	if m == nil {
		return
	}
	m.handlerErrors.Add(ctx, 1)
}

// FramesDelivered records frames enqueued to sessions.
func (m *Metrics) FramesDelivered(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.framesDelivered.Add(ctx, n)
}

// FrameDropped records one frame dropped for a saturated session.
func (m *Metrics) FrameDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.framesDropped.Add(ctx, 1)
}

// StreamOpened records a streaming connection going active.
func (m *Metrics) StreamOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeStreams.Add(ctx, 1)
}

// StreamClosed records a streaming connection closing.
func (m *Metrics) StreamClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeStreams.Add(ctx, -1)
}
