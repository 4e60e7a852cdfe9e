// Package bus implements streamhub's in-process event bus: pattern-based
// subscriptions with isolated fan-out. Publish never fails and a
// misbehaving subscriber never affects the others.
package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
	"github.com/skillsenselab/streamhub/observability"
)

// Handler receives every event whose topic matches the subscription pattern.
type Handler func(ev event.Event)

// subscription pairs a precompiled matcher with its handler.
type subscription struct {
	id        string
	pattern   string
	match     *matcher
	handler   Handler
	createdAt time.Time

	matched   atomic.Int64
	delivered atomic.Int64
	errors    atomic.Int64
}

// Bus owns all subscriptions and performs fan-out.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*subscription

	log     *logger.Logger
	metrics *observability.Metrics

	eventsMatched   atomic.Int64
	eventsDelivered atomic.Int64
	handlerErrors   atomic.Int64
}

// Option configures a Bus.
type Option func(*Bus)

// WithMetrics attaches OTel instruments to the bus.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// New creates an empty bus.
func New(log *logger.Logger, opts ...Option) *Bus {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	b := &Bus{
		subs: make(map[string]*subscription),
		log:  log.WithComponent("bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for every topic matching pattern and
// returns the subscription id. The pattern is compiled once here.
func (b *Bus) Subscribe(pattern string, handler Handler) (string, error) {
	m, err := compilePattern(pattern)
	if err != nil {
		return "", err
	}

	sub := &subscription{
		id:        uuid.New().String(),
		pattern:   pattern,
		match:     m,
		handler:   handler,
		createdAt: time.Now().UTC(),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.log.Debug("Subscription added", map[string]interface{}{
		"subscription_id": sub.id,
		"pattern":         pattern,
	})
	return sub.id, nil
}

// Unsubscribe removes a subscription. Removing an unknown id is a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	_, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if ok {
		b.log.Debug("Subscription removed", map[string]interface{}{
			"subscription_id": id,
		})
	}
}

// Publish delivers the event to every subscription whose pattern matches
// its topic, at most once per subscription. A panic in one handler is
// recovered, logged with the event's trace id, and counted; it never
// prevents delivery to the remaining handlers and never fails the publish.
func (b *Bus) Publish(ev event.Event) {
	b.mu.RLock()
	matching := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.match.matches(ev.Topic) {
			matching = append(matching, sub)
		}
	}
	b.mu.RUnlock()

	b.metrics.EventPublished(context.Background())
	if len(matching) == 0 {
		return
	}

	b.eventsMatched.Add(int64(len(matching)))
	b.metrics.EventsMatched(context.Background(), int64(len(matching)))

	for _, sub := range matching {
		sub.matched.Add(1)
		b.invoke(sub, ev)
	}
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(sub *subscription, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			sub.errors.Add(1)
			b.handlerErrors.Add(1)
			b.metrics.HandlerError(context.Background())
			b.log.Error("Subscriber handler panicked", map[string]interface{}{
				"subscription_id": sub.id,
				"pattern":         sub.pattern,
				"topic":           ev.Topic,
				"trace_id":        ev.TraceID,
				"panic":           r,
			})
		}
	}()

	sub.handler(ev)
	sub.delivered.Add(1)
	b.eventsDelivered.Add(1)
}

// SubscriptionStats is a read-only snapshot of one subscription's counters.
type SubscriptionStats struct {
	ID        string    `json:"id"`
	Pattern   string    `json:"pattern"`
	Matched   int64     `json:"matched"`
	Delivered int64     `json:"delivered"`
	Errors    int64     `json:"errors"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is a read-only snapshot of the bus counters.
type Stats struct {
	Subscriptions   int                 `json:"subscriptions"`
	EventsMatched   int64               `json:"events_matched"`
	EventsDelivered int64               `json:"events_delivered"`
	HandlerErrors   int64               `json:"handler_errors"`
	PerSubscription []SubscriptionStats `json:"per_subscription"`
}

// Stats returns current delivery and error counters for diagnostics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	perSub := make([]SubscriptionStats, 0, len(b.subs))
	for _, sub := range b.subs {
		perSub = append(perSub, SubscriptionStats{
			ID:        sub.id,
			Pattern:   sub.pattern,
			Matched:   sub.matched.Load(),
			Delivered: sub.delivered.Load(),
			Errors:    sub.errors.Load(),
			CreatedAt: sub.createdAt,
		})
	}

	return Stats{
		Subscriptions:   len(b.subs),
		EventsMatched:   b.eventsMatched.Load(),
		EventsDelivered: b.eventsDelivered.Load(),
		HandlerErrors:   b.handlerErrors.Load(),
		PerSubscription: perSub,
	}
}
