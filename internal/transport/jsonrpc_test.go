package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRPC(t *testing.T) {
	req, rpcErr := DecodeRPC(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_tasks","params":{"status":"todo"},"id":1}`))
	require.Nil(t, rpcErr)
	require.Equal(t, "list_tasks", req.Method)
	require.False(t, req.Notification())

	args, err := req.Args()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"status": "todo"}, args)
}

func TestDecodeRPC_Errors(t *testing.T) {
	cases := map[string]struct {
		body string
		code int
	}{
		"malformed":      {body: `{"jsonrpc":`, code: ErrParseCode},
		"missing method": {body: `{"jsonrpc":"2.0","id":1}`, code: ErrInvalidReq},
		"wrong version":  {body: `{"jsonrpc":"1.0","method":"list_tasks","id":1}`, code: ErrInvalidReq},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, rpcErr := DecodeRPC(bytes.NewBufferString(tc.body))
			require.NotNil(t, rpcErr)
			require.Equal(t, tc.code, rpcErr.Code)
		})
	}
}

func TestRPCRequest_Args(t *testing.T) {
	args, err := RPCRequest{Params: json.RawMessage(" null ")}.Args()
	require.NoError(t, err)
	require.Nil(t, args)

	_, err = RPCRequest{Params: json.RawMessage(`[1,2]`)}.Args()
	require.Error(t, err)
}

func TestWriteRPC(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRPCError(rec, RPCRequest{JSONRPC: "2.0", Method: "x", ID: 7}, &RPCError{Code: ErrInvalidParams, Message: "bad params"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RPCResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, ErrInvalidParams, resp.Error.Code)
	require.EqualValues(t, 7, resp.ID)

	rec = httptest.NewRecorder()
	writeRPCResult(rec, RPCRequest{JSONRPC: "2.0", Method: "x"}, map[string]any{"ok": true})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, rec.Body.Len())
}
