// Package stream implements streamhub's connection registry and streaming
// sessions: the process-wide map of long-lived client streams keyed by
// channel, the bounded per-connection delivery queues that bridge registry
// pushes to the outbound wire, and the heartbeat monitor that keeps idle
// streams alive and reaps dead ones.
package stream

import (
	"fmt"
)

// ChannelType identifies the kind of delivery scope a stream is attached to.
type ChannelType string

const (
	TypeGlobal       ChannelType = "global"
	TypeUser         ChannelType = "user"
	TypeWorkspace    ChannelType = "workspace"
	TypeConversation ChannelType = "conversation"
)

// GlobalResourceID is the single resource id used by the global channel.
const GlobalResourceID = "global"

// ParseChannelType validates a channel type received from a client.
func ParseChannelType(s string) (ChannelType, error) {
	switch ChannelType(s) {
	case TypeGlobal, TypeUser, TypeWorkspace, TypeConversation:
		return ChannelType(s), nil
	}
	return "", fmt.Errorf("unknown channel type %q", s)
}

// ChannelKey identifies a streaming delivery scope. It is independent of
// event topics: a key says where to deliver, a topic says what happened.
type ChannelKey struct {
	Type       ChannelType `json:"channel_type"`
	ResourceID string      `json:"resource_id"`
}

// NewChannelKey builds a key, collapsing every global key onto the single
// global resource bucket.
func NewChannelKey(t ChannelType, resourceID string) ChannelKey {
	if t == TypeGlobal {
		resourceID = GlobalResourceID
	}
	return ChannelKey{Type: t, ResourceID: resourceID}
}

// GlobalKey returns the key for the single global channel.
func GlobalKey() ChannelKey {
	return ChannelKey{Type: TypeGlobal, ResourceID: GlobalResourceID}
}

// String renders the key as "type:resource_id" for logs.
func (k ChannelKey) String() string {
	return string(k.Type) + ":" + k.ResourceID
}
