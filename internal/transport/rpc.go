package transport

import (
	"log/slog"
	"net/http"

	"github.com/teamdash/teamdash/internal/assistant"
)

// rpcServer exposes the tool catalog as JSON-RPC 2.0: the method is the tool
// name and params are its arguments.
type rpcServer struct {
	tools  ToolDispatcher
	logger *slog.Logger
}

func (s *rpcServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if _, ok := PrincipalFromContext(r.Context()); !ok {
		writeAPIError(w, MapError(ErrUnauthorized))
		return
	}

	req, rpcErr := DecodeRPC(r.Body)
	if rpcErr != nil {
		writeRPCError(w, req, rpcErr)
		return
	}

	if req.Method == "tools/list" {
		writeRPCResult(w, req, ToolsResponse{Tools: s.tools.Tools()})
		return
	}

	args, err := req.Args()
	if err != nil {
		writeRPCError(w, req, &RPCError{Code: ErrInvalidParams, Message: err.Error()})
		return
	}

	res := s.tools.Dispatch(r.Context(), scopeOf(r.Context(), r), req.Method, args)
	switch res.Code {
	case assistant.CodeToolNotFound:
		writeRPCError(w, req, &RPCError{Code: ErrMethodNotFound, Message: res.Error})
	case assistant.CodeValidationFailed:
		writeRPCError(w, req, &RPCError{Code: ErrInvalidParams, Message: res.Error, Data: res.Map()})
	default:
		if !res.Success {
			s.logger.Debug("rpc tool failed", "tool", req.Method, "error", res.Error)
		}
		writeRPCResult(w, req, res.Map())
	}
}
