package daemon

import "fmt"

// JSON-RPC 2.0 method names.
const (
	MethodQuery      = "query"
	MethodSecretPath = "secret_path"
	MethodStatus     = "status"
	MethodPing       = "ping"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Custom error codes for daemon-specific errors.
const (
	ErrCodeAuthFailed  = -32001
	ErrCodeQueryFailed = -32002
	ErrCodeTokenIO     = -32003
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// QueryParams are the parameters for the query method.
type QueryParams struct {
	// Secret authenticates the requesting user (required).
	Secret string `json:"secret"`

	// Pattern is matched as a substring of the indexed paths (required).
	Pattern string `json:"pattern"`

	// Count is the maximum number of matches to return (default: 100 when
	// omitted; must not be negative).
	Count int `json:"count,omitempty"`

	// Offset skips that many matches in canonical order.
	Offset int `json:"offset,omitempty"`
}

// Validate checks that required fields are present and applies defaults.
func (p *QueryParams) Validate() error {
	if p.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	if p.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if p.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	if p.Count == 0 {
		p.Count = 100
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

// SecretPathParams are the parameters for the secret_path method.
type SecretPathParams struct {
	// User is the system user to issue a token for (required).
	User string `json:"user"`
}

// Validate checks that required fields are present.
func (p *SecretPathParams) Validate() error {
	if p.User == "" {
		return fmt.Errorf("user is required")
	}
	return nil
}

// SecretPathResult is the result of the secret_path method.
type SecretPathResult struct {
	// Path is the token file to read the secret from. It is readable
	// only by the user it was issued for.
	Path string `json:"path"`
}

// StatusResult is the result of the status method.
type StatusResult struct {
	Running      bool     `json:"running"`
	PID          int      `json:"pid"`
	Uptime       string   `json:"uptime"`
	Entries      int      `json:"entries"`
	IndexVersion uint64   `json:"index_version"`
	WatcherType  string   `json:"watcher_type"`
	Roots        []string `json:"roots"`
}

// PingResult is the result of the ping method.
type PingResult struct {
	Pong bool `json:"pong"`
}
