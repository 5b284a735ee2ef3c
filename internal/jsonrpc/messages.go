package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol marker carried by every envelope.
const Version = "2.0"

var errEmptyBody = errors.New("empty request body")

// ID is a request id kept as raw JSON so it is echoed back unchanged.
// A zero ID marshals as null.
type ID json.RawMessage

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if len(id) == 0 {
		return []byte("null"), nil
	}
	return id, nil
}

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty id")
	}
	switch trimmed[0] {
	case '"', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return fmt.Errorf("id must be a string, number or null, got %s", trimmed)
	}
	*id = append((*id)[:0], trimmed...)
	return nil
}

// IsNull reports whether the id is absent or JSON null.
func (id ID) IsNull() bool {
	return len(id) == 0 || bytes.Equal(id, []byte("null"))
}

func (id ID) String() string {
	if len(id) == 0 {
		return "null"
	}
	return string(id)
}

// Request represents a JSON-RPC request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      ID              `json:"id,omitempty"`

	hasID bool
}

// IsNotification reports whether the request carried no id member at all.
func (r *Request) IsNotification() bool {
	return !r.hasID
}

// DecodeParams unmarshals params into v. Absent params leave v untouched.
// Numbers inside untyped values decode as json.Number so they keep their
// exact text.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 || bytes.Equal(r.Params, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Params))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// Response represents a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// NewResult builds a successful response.
func NewResult(id ID, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error response.
func NewError(id ID, err *Error) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

// Decode parses a raw body into a request. Malformed JSON yields a parse
// error; a structurally invalid envelope yields an invalid request error.
func Decode(body []byte) (Request, *Error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Request{}, ParseError(errEmptyBody)
	}
	if !json.Valid(body) {
		var v any
		err := json.Unmarshal(body, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return Request{}, ParseError(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, InvalidRequest(errors.New("request must be a JSON object"))
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, InvalidRequest(err)
	}
	_, req.hasID = raw["id"]
	return req, nil
}
