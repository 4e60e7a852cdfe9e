package stream

import (
	"context"
	"testing"
	"time"

	"github.com/skillsenselab/streamhub/event"
)

func monitorFixture(t *testing.T) (*Registry, *Monitor) {
	t.Helper()
	r := NewRegistry(Config{QueueSize: 8, HeartbeatInterval: 1, MonitorPeriod: 1}, allowAuthorizer{}, nil)
	return r, NewMonitor(r, testLogger())
}

func TestMonitor_SweepSendsHeartbeatToIdleSessions(t *testing.T) {
	r, m := monitorFixture(t)

	s, err := r.Register(context.Background(), ChannelKey{Type: TypeUser, ResourceID: "u1"}, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s.conn.lastActive.Store(time.Now().Add(-2 * time.Second).UnixNano())

	m.sweep()

	select {
	case f := <-s.queue:
		if f.Topic != event.TopicHeartbeat {
			t.Errorf("expected heartbeat topic, got %q", f.Topic)
		}
	default:
		t.Fatal("expected heartbeat frame enqueued for idle session")
	}
}

func TestMonitor_SweepSkipsRecentlyActiveSessions(t *testing.T) {
	r, m := monitorFixture(t)

	s, err := r.Register(context.Background(), ChannelKey{Type: TypeUser, ResourceID: "u1"}, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s.conn.touch()

	m.sweep()

	if len(s.queue) != 0 {
		t.Errorf("expected no heartbeat for active session, got %d queued", len(s.queue))
	}
}

func TestMonitor_SweepReapsClosedSessions(t *testing.T) {
	r, m := monitorFixture(t)

	s, err := r.Register(context.Background(), ChannelKey{Type: TypeConversation, ResourceID: "conv-1"}, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s.Close()

	m.sweep()

	if got := r.Stats().Active; got != 0 {
		t.Errorf("expected closed session reaped, got %d active", got)
	}
}

func TestMonitor_RunStop(t *testing.T) {
	r, m := monitorFixture(t)
	m.period = 10 * time.Millisecond

	s, err := r.Register(context.Background(), ChannelKey{Type: TypeUser, ResourceID: "u1"}, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s.conn.lastActive.Store(time.Now().Add(-2 * time.Second).UnixNano())

	go m.Run()
	time.Sleep(50 * time.Millisecond)
	m.Stop()
	// Stop is idempotent.
	m.Stop()

	if len(s.queue) == 0 {
		t.Error("expected at least one heartbeat while monitor was running")
	}
}
