package stream

import (
	"context"
	"testing"

	apperrors "github.com/skillsenselab/streamhub/errors"
	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
)

func testLogger() *logger.Logger {
	return logger.NewDefault("test")
}

type allowAuthorizer struct{}

func (allowAuthorizer) Authorize(context.Context, string, ChannelKey) error { return nil }

type denyAuthorizer struct{}

func (denyAuthorizer) Authorize(_ context.Context, userID string, key ChannelKey) error {
	return apperrors.AuthorizationDenied(userID, key.String())
}

func testRegistry(t *testing.T, queueSize int) *Registry {
	t.Helper()
	return NewRegistry(Config{QueueSize: queueSize}, allowAuthorizer{}, nil)
}

func testFrame(topic string) event.Frame {
	return event.EncodeFrame(event.New(topic, map[string]string{"k": "v"}, "test"))
}

func TestRegistry_PushFansOutWithinChannel(t *testing.T) {
	r := testRegistry(t, 8)
	key := ChannelKey{Type: TypeConversation, ResourceID: "conv-1"}

	s1, err := r.Register(context.Background(), key, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s2, err := r.Register(context.Background(), key, "u2")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	other, err := r.Register(context.Background(), ChannelKey{Type: TypeConversation, ResourceID: "conv-2"}, "u3")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if n := r.Push(key, testFrame("conversation.updated")); n != 2 {
		t.Fatalf("expected 2 recipients, got %d", n)
	}
	if len(s1.queue) != 1 || len(s2.queue) != 1 {
		t.Errorf("expected both same-channel sessions queued, got %d and %d", len(s1.queue), len(s2.queue))
	}
	if len(other.queue) != 0 {
		t.Errorf("expected other channel untouched, got %d queued", len(other.queue))
	}
}

func TestRegistry_PushUnknownChannelIsSilent(t *testing.T) {
	r := testRegistry(t, 8)

	if n := r.Push(ChannelKey{Type: TypeWorkspace, ResourceID: "nobody"}, testFrame("workspace.updated")); n != 0 {
		t.Errorf("expected 0 recipients, got %d", n)
	}
	if n := r.Push(ChannelKey{Type: "bogus", ResourceID: "x"}, testFrame("x")); n != 0 {
		t.Errorf("expected 0 recipients for unknown type, got %d", n)
	}
}

func TestRegistry_UnregisterThenPush(t *testing.T) {
	r := testRegistry(t, 8)
	key := ChannelKey{Type: TypeUser, ResourceID: "u1"}

	s, err := r.Register(context.Background(), key, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	r.Unregister(s.ConnectionID())
	if got := s.Connection().State(); got != StateClosed {
		t.Errorf("expected state closed, got %s", got)
	}

	if n := r.Push(key, testFrame("user.updated")); n != 0 {
		t.Errorf("expected 0 recipients after unregister, got %d", n)
	}

	// Double unregister is a no-op.
	r.Unregister(s.ConnectionID())
	r.Unregister("unknown-id")
}

func TestRegistry_FullQueueDropsFrame(t *testing.T) {
	r := testRegistry(t, 2)
	key := ChannelKey{Type: TypeUser, ResourceID: "u1"}

	s, err := r.Register(context.Background(), key, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		r.Push(key, testFrame("user.updated"))
	}

	if len(s.queue) != 2 {
		t.Errorf("expected queue at capacity 2, got %d", len(s.queue))
	}
	stats := r.Stats()
	if stats.Delivered != 2 {
		t.Errorf("expected 2 delivered, got %d", stats.Delivered)
	}
	if stats.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", stats.Dropped)
	}
	if got := s.Connection().State(); got != StateOpen {
		t.Errorf("drops must not close the session, got state %s", got)
	}
}

func TestRegistry_PushReapsClosedSessions(t *testing.T) {
	r := testRegistry(t, 8)
	key := ChannelKey{Type: TypeConversation, ResourceID: "conv-1"}

	s, err := r.Register(context.Background(), key, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s.Close()

	if n := r.Push(key, testFrame("conversation.updated")); n != 0 {
		t.Errorf("expected 0 recipients, got %d", n)
	}
	if got := r.Stats().Active; got != 0 {
		t.Errorf("expected closing session reaped, got %d active", got)
	}
}

func TestRegistry_DeniedRegistrationLeavesNoState(t *testing.T) {
	r := NewRegistry(Config{}, denyAuthorizer{}, nil)
	key := ChannelKey{Type: TypeWorkspace, ResourceID: "ws-1"}

	s, err := r.Register(context.Background(), key, "u1")
	if err == nil {
		t.Fatal("expected authorization error")
	}
	if s != nil {
		t.Error("expected nil session on denial")
	}

	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != apperrors.ErrCodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.ErrCodeForbidden, appErr.Code)
	}

	if got := r.Stats().Active; got != 0 {
		t.Errorf("expected no partial state, got %d active", got)
	}
	if got := len(r.Sessions()); got != 0 {
		t.Errorf("expected empty index, got %d sessions", got)
	}
}

func TestRegistry_GlobalResourceIDCollapses(t *testing.T) {
	r := testRegistry(t, 8)

	s, err := r.Register(context.Background(), ChannelKey{Type: TypeGlobal, ResourceID: "whatever"}, "u1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if got := s.Connection().Key.ResourceID; got != GlobalResourceID {
		t.Errorf("expected global resource id %q, got %q", GlobalResourceID, got)
	}

	if n := r.Push(GlobalKey(), testFrame("announcement")); n != 1 {
		t.Errorf("expected 1 recipient on global channel, got %d", n)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := testRegistry(t, 8)

	for i, key := range []ChannelKey{
		{Type: TypeUser, ResourceID: "u1"},
		{Type: TypeWorkspace, ResourceID: "ws-1"},
		GlobalKey(),
	} {
		if _, err := r.Register(context.Background(), key, "u1"); err != nil {
			t.Fatalf("register %d failed: %v", i, err)
		}
	}

	r.CloseAll()

	stats := r.Stats()
	if stats.Active != 0 {
		t.Errorf("expected 0 active after CloseAll, got %d", stats.Active)
	}
	for typ, n := range stats.ActiveByType {
		if n != 0 {
			t.Errorf("expected 0 active for %s, got %d", typ, n)
		}
	}
}
