package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates a missing or invalid credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the access check refused the channel.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStreamingUnsupported indicates the transport cannot stream.
	ErrCodeStreamingUnsupported ErrorCode = "STREAMING_UNSUPPORTED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)
