package types

import "fmt"

// ErrorCode represents a unified error code across the federation layer.
type ErrorCode string

// Node / dispatch error codes
const (
	ErrNodeUnreachable   ErrorCode = "NODE_UNREACHABLE"
	ErrNodeTimeout       ErrorCode = "NODE_TIMEOUT"
	ErrAccessDenied      ErrorCode = "ACCESS_DENIED"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrNoNodesAvailable  ErrorCode = "NO_NODES_AVAILABLE"
	ErrNodeNotFound      ErrorCode = "NODE_NOT_FOUND"
	ErrInvalidNode       ErrorCode = "INVALID_NODE"
	ErrNodeExists        ErrorCode = "NODE_EXISTS"
)

// Privacy error codes
const (
	ErrEncryptionFailed ErrorCode = "ENCRYPTION_FAILED"
	ErrPrivacyViolation ErrorCode = "PRIVACY_VIOLATION"
)

// Query / config error codes
const (
	ErrInvalidQuery    ErrorCode = "INVALID_QUERY"
	ErrInvalidStrategy ErrorCode = "INVALID_STRATEGY"
	ErrInvalidConfig   ErrorCode = "INVALID_CONFIG"
	ErrDiscoveryFailed ErrorCode = "DISCOVERY_FAILED"
	ErrStoreFailure    ErrorCode = "STORE_FAILURE"
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode attaches the offending node ID.
func (e *Error) WithNode(nodeID string) *Error {
	e.NodeID = nodeID
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if fe, ok := err.(*Error); ok {
			e = fe
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}
