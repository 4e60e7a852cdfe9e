package auth

import (
	"context"
	"testing"

	"github.com/skillsenselab/streamhub/stream"
)

func TestOwnerAuthorizer(t *testing.T) {
	a := NewOwnerAuthorizer()
	ctx := context.Background()

	if err := a.Authorize(ctx, "u1", stream.ChannelKey{Type: stream.TypeUser, ResourceID: "u1"}); err != nil {
		t.Errorf("owner must stream their own user channel: %v", err)
	}
	if err := a.Authorize(ctx, "u1", stream.ChannelKey{Type: stream.TypeUser, ResourceID: "u2"}); err == nil {
		t.Error("expected denial for another user's channel")
	}

	for _, key := range []stream.ChannelKey{
		stream.GlobalKey(),
		{Type: stream.TypeWorkspace, ResourceID: "ws-1"},
		{Type: stream.TypeConversation, ResourceID: "conv-1"},
	} {
		if err := a.Authorize(ctx, "u1", key); err != nil {
			t.Errorf("expected %s to pass through: %v", key, err)
		}
	}
}

func TestAllowAllAndDenyAll(t *testing.T) {
	ctx := context.Background()
	key := stream.ChannelKey{Type: stream.TypeUser, ResourceID: "u2"}

	if err := (AllowAll{}).Authorize(ctx, "u1", key); err != nil {
		t.Errorf("AllowAll must always pass: %v", err)
	}
	if err := (DenyAll{}).Authorize(ctx, "u1", key); err == nil {
		t.Error("DenyAll must always refuse")
	}
}
