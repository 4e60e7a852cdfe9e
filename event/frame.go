package event

import (
	"encoding/json"
	"fmt"
)

// Frame is the wire-formatted view of an event delivered to a streaming
// client: one Server-Sent Events block of the form
//
//	event: <topic>\n
//	data: <json payload>\n\n
type Frame struct {
	Topic string
	Data  []byte
}

// EncodeFrame renders an event as a wire frame. The payload is JSON-encoded;
// values that cannot be marshaled are replaced with an error object so a
// bad payload never breaks the stream.
func EncodeFrame(ev Event) Frame {
	data, err := json.Marshal(framePayload{
		Payload:       ev.Payload,
		Source:        ev.Source,
		TraceID:       ev.TraceID,
		CorrelationID: ev.CorrelationID,
		Timestamp:     ev.Timestamp.Format(timeLayout),
	})
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":"unencodable payload","trace_id":%q}`, ev.TraceID))
	}
	return Frame{Topic: ev.Topic, Data: data}
}

// Bytes returns the serialized SSE block for the frame.
func (f Frame) Bytes() []byte {
	buf := make([]byte, 0, len(f.Topic)+len(f.Data)+16)
	buf = append(buf, "event: "...)
	buf = append(buf, f.Topic...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, f.Data...)
	buf = append(buf, "\n\n"...)
	return buf
}

// HeartbeatFrame builds the synthetic keep-alive frame.
func HeartbeatFrame(timestamp string) Frame {
	return Frame{
		Topic: TopicHeartbeat,
		Data:  []byte(fmt.Sprintf(`{"timestamp":%q}`, timestamp)),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type framePayload struct {
	Payload       any    `json:"payload"`
	Source        string `json:"source,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}
