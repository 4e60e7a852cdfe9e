package logger

// Standard field key constants for structured logging.
const (
	FieldComponent     = "component"
	FieldTraceID       = "trace_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldUserID        = "user_id"
	FieldConnectionID  = "connection_id"
	FieldChannel       = "channel"
	FieldTopic         = "topic"
	FieldError         = "error"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("delivered", logger.Fields("topic", ev.Topic, "count", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
