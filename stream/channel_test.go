package stream

import "testing"

func TestParseChannelType(t *testing.T) {
	for _, valid := range []string{"global", "user", "workspace", "conversation"} {
		if _, err := ParseChannelType(valid); err != nil {
			t.Errorf("expected %q to parse, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Global", "team", "user "} {
		if _, err := ParseChannelType(invalid); err == nil {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}

func TestNewChannelKey_GlobalCollapses(t *testing.T) {
	k := NewChannelKey(TypeGlobal, "anything")
	if k != GlobalKey() {
		t.Errorf("expected global key, got %v", k)
	}

	k = NewChannelKey(TypeUser, "u1")
	if k.ResourceID != "u1" {
		t.Errorf("non-global resource id must be preserved, got %q", k.ResourceID)
	}
}

func TestChannelKey_String(t *testing.T) {
	k := ChannelKey{Type: TypeConversation, ResourceID: "conv-1"}
	if got := k.String(); got != "conversation:conv-1" {
		t.Errorf("unexpected string form %q", got)
	}
}
