package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/streamhub/errors"
	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
	"github.com/skillsenselab/streamhub/observability"
)

// Authorizer is the access check hook consulted before a stream is
// registered. A non-nil error prevents registration entirely; no partial
// session state is ever created.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, key ChannelKey) error
}

// bucket holds the sessions for one channel type. Each bucket has its own
// lock so pushes on unrelated channel types never serialize each other.
type bucket struct {
	mu sync.RWMutex
	// conns maps resource id -> connection id -> session.
	conns map[string]map[string]*Session
}

// Registry is the single owner of all shared connection state in the
// process. One Registry instance is constructed at boot and passed to
// every component that needs it; it is never re-created per request.
type Registry struct {
	cfg        Config
	authorizer Authorizer
	buckets    map[ChannelType]*bucket

	indexMu sync.RWMutex
	index   map[string]*Session // connection id -> session

	log     *logger.Logger
	metrics *observability.Metrics

	delivered atomic.Int64
	dropped   atomic.Int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMetrics attaches OTel instruments to the registry.
func WithMetrics(m *observability.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry. The authorizer is required; use
// auth.AllowAll in tests.
func NewRegistry(cfg Config, authorizer Authorizer, log *logger.Logger, opts ...RegistryOption) *Registry {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	r := &Registry{
		cfg:        cfg,
		authorizer: authorizer,
		buckets: map[ChannelType]*bucket{
			TypeGlobal:       {conns: make(map[string]map[string]*Session)},
			TypeUser:         {conns: make(map[string]map[string]*Session)},
			TypeWorkspace:    {conns: make(map[string]map[string]*Session)},
			TypeConversation: {conns: make(map[string]map[string]*Session)},
		},
		index: make(map[string]*Session),
		log:   log.WithComponent("stream-registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register runs the access check and, on success, atomically creates a
// Connection and its delivery queue as a pair. The returned session is
// immediately eligible for pushes.
func (r *Registry) Register(ctx context.Context, key ChannelKey, ownerUserID string) (*Session, error) {
	key = NewChannelKey(key.Type, key.ResourceID)
	b, ok := r.buckets[key.Type]
	if !ok {
		return nil, errors.InvalidInput("channel_type", "unknown channel type")
	}

	if err := r.authorizer.Authorize(ctx, ownerUserID, key); err != nil {
		r.log.Warn("Stream registration denied", map[string]interface{}{
			logger.FieldUserID:  ownerUserID,
			logger.FieldChannel: key.String(),
			logger.FieldError:   err.Error(),
		})
		if _, isApp := err.(*errors.AppError); isApp {
			return nil, err
		}
		return nil, errors.AuthorizationDenied(ownerUserID, key.String()).WithCause(err)
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		Key:         key,
		OwnerUserID: ownerUserID,
		ConnectedAt: time.Now().UTC(),
	}
	conn.setState(StateConnecting)
	conn.touch()
	session := newSession(conn, r.cfg.QueueSize, r.log)

	b.mu.Lock()
	if b.conns[key.ResourceID] == nil {
		b.conns[key.ResourceID] = make(map[string]*Session)
	}
	b.conns[key.ResourceID][conn.ID] = session
	r.indexMu.Lock()
	r.index[conn.ID] = session
	r.indexMu.Unlock()
	conn.setState(StateOpen)
	b.mu.Unlock()

	r.metrics.StreamOpened(ctx)
	r.log.Debug("Stream registered", map[string]interface{}{
		logger.FieldConnectionID: conn.ID,
		logger.FieldChannel:      key.String(),
		logger.FieldUserID:       ownerUserID,
	})
	return session, nil
}

// Unregister removes the connection/queue pair if present. Calling it for
// an unknown or already-removed connection is a no-op.
func (r *Registry) Unregister(connectionID string) {
	r.indexMu.RLock()
	session, ok := r.index[connectionID]
	r.indexMu.RUnlock()
	if !ok {
		return
	}

	key := session.conn.Key
	b := r.buckets[key.Type]

	b.mu.Lock()
	if byID, ok := b.conns[key.ResourceID]; ok {
		delete(byID, connectionID)
		if len(byID) == 0 {
			delete(b.conns, key.ResourceID)
		}
	}
	r.indexMu.Lock()
	_, present := r.index[connectionID]
	delete(r.index, connectionID)
	r.indexMu.Unlock()
	b.mu.Unlock()

	if !present {
		return
	}

	session.Close()
	session.conn.setState(StateClosed)
	r.metrics.StreamClosed(context.Background())
	r.log.Debug("Stream unregistered", map[string]interface{}{
		logger.FieldConnectionID: connectionID,
		logger.FieldChannel:      key.String(),
	})
}

// Push enqueues the frame into every open session registered for the
// channel key and returns the number of sessions that accepted it. Sessions
// already closing are skipped and scheduled for removal; a full queue drops
// the frame for that one recipient and increments the drop counter. An
// unknown key is a valid, silent outcome: zero recipients, no error.
func (r *Registry) Push(key ChannelKey, f event.Frame) int {
	key = NewChannelKey(key.Type, key.ResourceID)
	b, ok := r.buckets[key.Type]
	if !ok {
		return 0
	}

	var stale []string
	deliveredTo := 0

	b.mu.RLock()
	for _, session := range b.conns[key.ResourceID] {
		if session.Closed() {
			stale = append(stale, session.ConnectionID())
			continue
		}
		if session.Enqueue(f) {
			deliveredTo++
		} else {
			r.dropped.Add(1)
			r.metrics.FrameDropped(context.Background())
			r.log.Warn("Stream queue full, frame dropped", map[string]interface{}{
				logger.FieldConnectionID: session.ConnectionID(),
				logger.FieldChannel:      key.String(),
				logger.FieldTopic:        f.Topic,
			})
		}
	}
	b.mu.RUnlock()

	for _, id := range stale {
		r.Unregister(id)
	}

	if deliveredTo > 0 {
		r.delivered.Add(int64(deliveredTo))
		r.metrics.FramesDelivered(context.Background(), int64(deliveredTo))
	}
	return deliveredTo
}

// Sessions returns a snapshot of every registered session. Used by the
// heartbeat monitor; the snapshot may be stale by the time it is iterated.
func (r *Registry) Sessions() []*Session {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()

	sessions := make([]*Session, 0, len(r.index))
	for _, s := range r.index {
		sessions = append(sessions, s)
	}
	return sessions
}

// CloseAll tears down every session immediately. Queued frames are
// discarded; streamed events are not durable.
func (r *Registry) CloseAll() {
	for _, s := range r.Sessions() {
		r.Unregister(s.ConnectionID())
	}
}

// Stats is a read-only snapshot of registry counters.
type Stats struct {
	ActiveByType map[ChannelType]int `json:"active_by_type"`
	Active       int                 `json:"active"`
	Delivered    int64               `json:"delivered"`
	Dropped      int64               `json:"dropped"`
}

// Stats returns active connection counts per channel type plus delivery
// and drop totals.
func (r *Registry) Stats() Stats {
	stats := Stats{ActiveByType: make(map[ChannelType]int, len(r.buckets))}
	for t, b := range r.buckets {
		b.mu.RLock()
		n := 0
		for _, byID := range b.conns {
			n += len(byID)
		}
		b.mu.RUnlock()
		stats.ActiveByType[t] = n
		stats.Active += n
	}
	stats.Delivered = r.delivered.Load()
	stats.Dropped = r.dropped.Load()
	return stats
}
