package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// methodHandler handles one JSON-RPC method
type methodHandler func(s *Server, params json.RawMessage) (interface{}, error)

// methods maps request methods to their handlers. Methods other than
// initialize and ping require a completed handshake.
var methods = map[string]methodHandler{
	"initialize": handleInitialize,
	"ping":       handlePing,
	"tools/list": handleToolsList,
	"tools/call": handleToolsCall,
}

// handleMessage processes one raw message and returns the encoded response,
// or nil for notifications. The error is reserved for failures to encode a
// response; protocol failures become JSON-RPC error responses.
func (s *Server) handleMessage(data []byte) ([]byte, error) {
	req, err := parseRequest(data)
	if err != nil {
		var id interface{}
		if req != nil {
			id = req.ID
		}
		return s.encodeError(err, id)
	}

	s.logger.Debug("mcp request",
		zap.String("method", req.Method),
		zap.Any("id", req.ID))

	if req.IsNotification() {
		s.handleNotification(req)
		return nil, nil
	}

	handler, ok := methods[req.Method]
	if !ok {
		return s.encodeError(protocolErrorf(ErrCodeMethodNotFound, "method not found: %s", req.Method), req.ID)
	}

	result, err := handler(s, req.Params)
	if err != nil {
		return s.encodeError(err, req.ID)
	}

	data, err = json.Marshal(createResponse(result, req.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return data, nil
}

// handleNotification applies a notification. Unknown notifications are
// ignored.
func (s *Server) handleNotification(req *JSONRPCRequest) {
	switch req.Method {
	case "notifications/initialized":
		if s.getState() == stateInitializing {
			s.setState(stateInitialized)
			s.logger.Info("mcp session initialized")
		}
	default:
		s.logger.Debug("ignoring notification", zap.String("method", req.Method))
	}
}

// encodeError encodes err as a JSON-RPC error response
func (s *Server) encodeError(err error, id interface{}) ([]byte, error) {
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		perr = &ProtocolError{Code: ErrCodeInternalError, Detail: err.Error()}
	}

	s.logger.Warn("mcp request failed",
		zap.Int("code", perr.Code),
		zap.String("detail", perr.Detail))

	data, merr := json.Marshal(createErrorResponse(perr.Code, perr.Message(), perr.Detail, id))
	if merr != nil {
		return nil, fmt.Errorf("failed to marshal error response: %w", merr)
	}
	return data, nil
}

// requireInitialized rejects requests sent before the handshake completed
func requireInitialized(s *Server) error {
	if s.getState() != stateInitialized {
		return protocolErrorf(ErrCodeInvalidRequest, "server not initialized")
	}
	return nil
}

func handlePing(s *Server, params json.RawMessage) (interface{}, error) {
	return map[string]interface{}{}, nil
}
