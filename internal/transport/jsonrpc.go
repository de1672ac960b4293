package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

const rpcVersion = "2.0"

// RPCRequest is a JSON-RPC call. A request without an id is a notification
// and gets no response body.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Notification reports whether the caller expects no answer.
func (r RPCRequest) Notification() bool { return r.ID == nil }

// Args decodes params as a tool argument object. Absent or null params are
// an empty call.
func (r RPCRequest) Args() (map[string]any, error) {
	raw := bytes.TrimSpace(r.Params)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.New("params must be an object")
	}
	return args, nil
}

type RPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// DecodeRPC reads one request. Malformed JSON yields ErrParseCode, a
// well-formed object that is not a 2.0 call yields ErrInvalidReq.
func DecodeRPC(body io.Reader) (RPCRequest, *RPCError) {
	var req RPCRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return RPCRequest{}, &RPCError{Code: ErrParseCode, Message: "parse error"}
	}
	if req.JSONRPC != rpcVersion || req.Method == "" {
		return RPCRequest{}, &RPCError{Code: ErrInvalidReq, Message: "invalid request"}
	}
	return req, nil
}

func writeRPCResult(w http.ResponseWriter, req RPCRequest, result any) {
	if req.Notification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeRPC(w, RPCResponse{JSONRPC: rpcVersion, Result: result, ID: req.ID})
}

func writeRPCError(w http.ResponseWriter, req RPCRequest, rpcErr *RPCError) {
	if req.Method != "" && req.Notification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeRPC(w, RPCResponse{JSONRPC: rpcVersion, Error: rpcErr, ID: req.ID})
}

func writeRPC(w http.ResponseWriter, resp RPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
