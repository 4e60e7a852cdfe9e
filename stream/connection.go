package stream

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a streaming connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection is the registry's record for one open stream. The registry is
// its exclusive owner; sessions hold a back-reference only to update
// activity timestamps and state.
type Connection struct {
	// ID is unique for the process lifetime in which it was issued.
	ID string `json:"id"`
	// Key is the delivery scope the connection is registered under.
	Key ChannelKey `json:"channel_key"`
	// OwnerUserID is the authenticated user that opened the stream.
	OwnerUserID string `json:"owner_user_id"`
	// ConnectedAt is the registration instant.
	ConnectedAt time.Time `json:"connected_at"`

	state      atomic.Int32
	lastActive atomic.Int64 // unix nanos of the last successful write
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// LastActiveAt returns the instant of the last successful write or heartbeat.
func (c *Connection) LastActiveAt() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Connection) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}
