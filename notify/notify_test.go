package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/stream"
)

type fakeBus struct {
	published []event.Event
}

func (f *fakeBus) Publish(ev event.Event) {
	f.published = append(f.published, ev)
}

type fakeRegistry struct {
	pushes []struct {
		key   stream.ChannelKey
		frame event.Frame
	}
}

func (f *fakeRegistry) Push(key stream.ChannelKey, frame event.Frame) int {
	f.pushes = append(f.pushes, struct {
		key   stream.ChannelKey
		frame event.Frame
	}{key, frame})
	return 1
}

type fakeRelay struct {
	broadcasts int
	err        error
}

func (f *fakeRelay) Broadcast(context.Context, stream.ChannelKey, event.Event) error {
	f.broadcasts++
	return f.err
}

func TestNotify_BusOnlyByDefault(t *testing.T) {
	b := &fakeBus{}
	r := &fakeRegistry{}
	c := NewCoordinator(b, r, nil)

	ev := c.Notify(context.Background(), "user.updated", map[string]string{"id": "u1"}, "profile")

	if len(b.published) != 1 {
		t.Fatalf("expected 1 bus publish, got %d", len(b.published))
	}
	if len(r.pushes) != 0 {
		t.Errorf("expected no direct push without channel, got %d", len(r.pushes))
	}
	if ev.TraceID == "" {
		t.Error("expected trace id assigned")
	}
	if ev.Topic != "user.updated" {
		t.Errorf("unexpected topic %q", ev.Topic)
	}
}

func TestNotify_ChannelEnablesBothPaths(t *testing.T) {
	b := &fakeBus{}
	r := &fakeRegistry{}
	c := NewCoordinator(b, r, nil)

	key := stream.ChannelKey{Type: stream.TypeConversation, ResourceID: "conv-1"}
	ev := c.Notify(context.Background(), "conversation.updated", nil, "chat", WithChannel(key))

	if len(b.published) != 1 {
		t.Fatalf("expected 1 bus publish, got %d", len(b.published))
	}
	if len(r.pushes) != 1 {
		t.Fatalf("expected 1 direct push, got %d", len(r.pushes))
	}
	if r.pushes[0].key != key {
		t.Errorf("expected push to %v, got %v", key, r.pushes[0].key)
	}
	if r.pushes[0].frame.Topic != ev.Topic {
		t.Errorf("expected frame topic %q, got %q", ev.Topic, r.pushes[0].frame.Topic)
	}
	if b.published[0].TraceID != ev.TraceID {
		t.Error("expected the same event on both paths")
	}
}

func TestNotify_WithoutRepublishSkipsDirectPath(t *testing.T) {
	b := &fakeBus{}
	r := &fakeRegistry{}
	c := NewCoordinator(b, r, nil)

	key := stream.ChannelKey{Type: stream.TypeUser, ResourceID: "u1"}
	c.Notify(context.Background(), "user.updated", nil, "profile", WithChannel(key), WithoutRepublish())

	if len(b.published) != 1 {
		t.Fatalf("expected bus publish to remain, got %d", len(b.published))
	}
	if len(r.pushes) != 0 {
		t.Errorf("expected no direct push with republish disabled, got %d", len(r.pushes))
	}
}

func TestNotify_CorrelationID(t *testing.T) {
	b := &fakeBus{}
	c := NewCoordinator(b, &fakeRegistry{}, nil)

	ev := c.Notify(context.Background(), "user.updated", nil, "profile", WithCorrelationID("req-42"))

	if ev.CorrelationID != "req-42" {
		t.Errorf("expected correlation id propagated, got %q", ev.CorrelationID)
	}
	if b.published[0].CorrelationID != "req-42" {
		t.Errorf("expected correlation id on the published event, got %q", b.published[0].CorrelationID)
	}
}

func TestNotify_RelayErrorIsSwallowed(t *testing.T) {
	b := &fakeBus{}
	r := &fakeRegistry{}
	relay := &fakeRelay{err: errors.New("redis down")}
	c := NewCoordinator(b, r, nil, WithRelay(relay))

	key := stream.ChannelKey{Type: stream.TypeWorkspace, ResourceID: "ws-1"}
	c.Notify(context.Background(), "workspace.updated", nil, "admin", WithChannel(key))

	if relay.broadcasts != 1 {
		t.Fatalf("expected 1 broadcast attempt, got %d", relay.broadcasts)
	}
	if len(r.pushes) != 1 {
		t.Errorf("local delivery must happen despite relay failure, got %d pushes", len(r.pushes))
	}
}

func TestNotify_RelayNotUsedWithoutChannel(t *testing.T) {
	relay := &fakeRelay{}
	c := NewCoordinator(&fakeBus{}, &fakeRegistry{}, nil, WithRelay(relay))

	c.Notify(context.Background(), "user.updated", nil, "profile")

	if relay.broadcasts != 0 {
		t.Errorf("expected no broadcast for bus-only notification, got %d", relay.broadcasts)
	}
}
