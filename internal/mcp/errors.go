package mcp

import "fmt"

// JSON-RPC error codes
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Error message constants
const (
	ErrMsgParseError     = "Parse error"
	ErrMsgInvalidRequest = "Invalid Request"
	ErrMsgMethodNotFound = "Method not found"
	ErrMsgInvalidParams  = "Invalid params"
	ErrMsgInternalError  = "Internal error"
)

// ProtocolError is a failure reported to the client as a JSON-RPC error
// object rather than as a tool result
type ProtocolError struct {
	Code   int
	Detail string
}

func (e *ProtocolError) Error() string {
	return e.Detail
}

// Message returns the standard JSON-RPC message for the error code
func (e *ProtocolError) Message() string {
	switch e.Code {
	case ErrCodeParseError:
		return ErrMsgParseError
	case ErrCodeInvalidRequest:
		return ErrMsgInvalidRequest
	case ErrCodeMethodNotFound:
		return ErrMsgMethodNotFound
	case ErrCodeInvalidParams:
		return ErrMsgInvalidParams
	default:
		return ErrMsgInternalError
	}
}

func protocolErrorf(code int, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Code: code, Detail: fmt.Sprintf(format, args...)}
}
