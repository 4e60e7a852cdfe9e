package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/stream"
)

type countingPusher struct {
	mu     sync.Mutex
	pushes []stream.ChannelKey
}

func (p *countingPusher) Push(key stream.ChannelKey, _ event.Frame) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, key)
	return 1
}

func (p *countingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

func startRelay(t *testing.T, addr string, pusher Pusher) *Relay {
	t.Helper()
	r, err := New(Config{Enabled: true, Addr: addr, Channel: "streamhub:test"}, pusher, nil)
	if err != nil {
		t.Fatalf("relay create failed: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("relay start failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func TestRelay_CrossInstanceDelivery(t *testing.T) {
	mr := miniredis.RunT(t)

	localPusher := &countingPusher{}
	peerPusher := &countingPusher{}
	local := startRelay(t, mr.Addr(), localPusher)
	startRelay(t, mr.Addr(), peerPusher)

	key := stream.ChannelKey{Type: stream.TypeConversation, ResourceID: "conv-1"}
	ev := event.New("conversation.updated", map[string]string{"id": "m1"}, "chat")
	if err := local.Broadcast(context.Background(), key, ev); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for peerPusher.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("peer never received the broadcast")
		}
		time.Sleep(10 * time.Millisecond)
	}

	peerPusher.mu.Lock()
	got := peerPusher.pushes[0]
	peerPusher.mu.Unlock()
	if got != key {
		t.Errorf("expected push to %v, got %v", key, got)
	}

	// The origin instance must not push its own broadcast again.
	time.Sleep(100 * time.Millisecond)
	if n := localPusher.count(); n != 0 {
		t.Errorf("expected origin to skip its own envelope, got %d pushes", n)
	}
	if n := peerPusher.count(); n != 1 {
		t.Errorf("expected exactly one peer delivery, got %d", n)
	}
}

func TestRelay_MalformedEnvelopeIsSkipped(t *testing.T) {
	mr := miniredis.RunT(t)

	pusher := &countingPusher{}
	r := startRelay(t, mr.Addr(), pusher)

	if err := r.rdb.Publish(context.Background(), "streamhub:test", "not json").Err(); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	key := stream.ChannelKey{Type: stream.TypeUser, ResourceID: "u1"}
	peer, err := New(Config{Addr: mr.Addr(), Channel: "streamhub:test"}, &countingPusher{}, nil)
	if err != nil {
		t.Fatalf("peer create failed: %v", err)
	}
	t.Cleanup(func() { _ = peer.rdb.Close() })
	if err := peer.Broadcast(context.Background(), key, event.New("user.updated", nil, "test")); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pusher.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("consumer stopped after malformed envelope")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRelay_StartStopIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := New(Config{Addr: mr.Addr()}, &countingPusher{}, nil)
	if err != nil {
		t.Fatalf("relay create failed: %v", err)
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestRelay_HealthReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := New(Config{Addr: mr.Addr()}, &countingPusher{}, nil)
	if err != nil {
		t.Fatalf("relay create failed: %v", err)
	}
	t.Cleanup(func() { _ = r.rdb.Close() })

	if h := r.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
	}

	mr.Close()
	if h := r.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("expected unhealthy after redis shutdown, got %s", h.Status)
	}
}
