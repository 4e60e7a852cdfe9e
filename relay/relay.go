// Package relay extends delivery across identical service instances.
// Channel-addressed events are re-published on a Redis pub/sub channel;
// each instance's relay pushes received events into its own local registry
// only, so no registry ever needs to know about another process's
// connections. Envelopes are tagged with the origin instance and skipped
// there, since the local push already happened on the direct path.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/google/uuid"

	"github.com/skillsenselab/streamhub/component"
	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
	"github.com/skillsenselab/streamhub/stream"
)

// Pusher delivers relayed frames into the local registry.
type Pusher interface {
	Push(key stream.ChannelKey, f event.Frame) int
}

// Envelope is the wire format published on the Redis channel.
type Envelope struct {
	Origin string            `json:"origin"`
	Key    stream.ChannelKey `json:"key"`
	Event  event.Event       `json:"event"`
}

// Relay broadcasts channel-addressed events to peer instances and consumes
// their broadcasts into the local registry.
type Relay struct {
	rdb        *goredis.Client
	registry   Pusher
	channel    string
	instanceID string
	log        *logger.Logger

	mu      sync.Mutex
	pubsub  *goredis.PubSub
	wg      sync.WaitGroup
	running bool
}

var _ component.Component = (*Relay)(nil)

// New creates a relay over the configured Redis instance.
func New(cfg Config, registry Pusher, log *logger.Logger) (*Relay, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Relay{
		rdb:        rdb,
		registry:   registry,
		channel:    cfg.Channel,
		instanceID: uuid.New().String(),
		log:        log.WithComponent("relay"),
	}, nil
}

// InstanceID returns this process's relay identity.
func (r *Relay) InstanceID() string { return r.instanceID }

// Broadcast publishes the event for the channel key to all peer instances.
func (r *Relay) Broadcast(ctx context.Context, key stream.ChannelKey, ev event.Event) error {
	data, err := json.Marshal(Envelope{Origin: r.instanceID, Key: key, Event: ev})
	if err != nil {
		return fmt.Errorf("relay envelope encode: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Name returns the component name.
func (r *Relay) Name() string { return "relay" }

// Start verifies connectivity and begins consuming peer broadcasts.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("relay start ping: %w", err)
	}

	r.pubsub = r.rdb.Subscribe(context.Background(), r.channel)
	// Force the subscription to be established before Start returns so
	// no peer broadcast published afterwards is missed.
	if _, err := r.pubsub.Receive(ctx); err != nil {
		_ = r.pubsub.Close()
		r.pubsub = nil
		return fmt.Errorf("relay subscribe: %w", err)
	}

	r.running = true
	r.wg.Add(1)
	go r.consume(r.pubsub.Channel())

	r.log.Info("Relay started", map[string]interface{}{
		"channel":     r.channel,
		"instance_id": r.instanceID,
	})
	return nil
}

// Stop closes the subscription and the Redis connection.
func (r *Relay) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false

	if err := r.pubsub.Close(); err != nil {
		r.log.Warn("Relay pubsub close failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	r.wg.Wait()
	return r.rdb.Close()
}

// Health pings Redis.
func (r *Relay) Health(ctx context.Context) component.Health {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return component.Health{
			Name:    r.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: r.Name(), Status: component.StatusHealthy}
}

// consume pushes every peer envelope into the local registry. Envelopes
// that originated here are skipped: the direct push already delivered them.
func (r *Relay) consume(messages <-chan *goredis.Message) {
	defer r.wg.Done()

	for msg := range messages {
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			r.log.Warn("Relay envelope decode failed", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
			continue
		}
		if env.Origin == r.instanceID {
			continue
		}

		delivered := r.registry.Push(env.Key, event.EncodeFrame(env.Event))
		r.log.Debug("Relayed event delivered", map[string]interface{}{
			logger.FieldTopic:   env.Event.Topic,
			logger.FieldChannel: env.Key.String(),
			"origin":            env.Origin,
			"delivered":         delivered,
		})
	}
}
