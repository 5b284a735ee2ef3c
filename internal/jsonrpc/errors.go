package jsonrpc

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// CodeParseError indicates invalid JSON was received by the server.
	CodeParseError ErrorCode = -32700
	// CodeInvalidRequest indicates the JSON sent is not a valid request object.
	CodeInvalidRequest ErrorCode = -32600
	// CodeMethodNotFound indicates the method does not exist.
	CodeMethodNotFound ErrorCode = -32601
	// CodeInvalidParams indicates params that do not fit the method.
	CodeInvalidParams ErrorCode = -32602
	// CodeInternalError indicates a fault while producing the result.
	CodeInternalError ErrorCode = -32603
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ParseError builds a -32700 error.
func ParseError(cause error) *Error {
	return &Error{Code: CodeParseError, Message: "Parse error: " + cause.Error()}
}

// InvalidRequest builds a -32600 error.
func InvalidRequest(cause error) *Error {
	return &Error{Code: CodeInvalidRequest, Message: "Invalid request: " + cause.Error()}
}

// MethodNotFound builds a -32601 error naming the method.
func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found: " + method}
}

// InvalidParams builds a -32602 error.
func InvalidParams(cause error) *Error {
	return &Error{Code: CodeInvalidParams, Message: "Invalid params: " + cause.Error()}
}

// InternalError builds a -32603 error.
func InternalError(cause error) *Error {
	return &Error{Code: CodeInternalError, Message: "Internal error: " + cause.Error()}
}
