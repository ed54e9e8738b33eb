package mcp

import (
	"encoding/json"

	"go.uber.org/zap"
)

// supportedProtocolVersion is the only MCP revision the server speaks
const supportedProtocolVersion = "2025-11-25"

// initializeParams represents the initialize request parameters
type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      map[string]interface{} `json:"clientInfo,omitempty"`
}

// handleInitialize handles the initialize request
func handleInitialize(s *Server, params json.RawMessage) (interface{}, error) {
	if s.getState() != stateNotInitialized {
		return nil, protocolErrorf(ErrCodeInvalidRequest, "already initialized")
	}

	var p initializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, protocolErrorf(ErrCodeInvalidParams, "invalid initialize params: %v", err)
		}
	}

	// Clients asking for another revision get ours and may disconnect
	if p.ProtocolVersion != supportedProtocolVersion {
		s.logger.Info("client requested unsupported protocol version",
			zap.String("requested", p.ProtocolVersion),
			zap.String("offered", supportedProtocolVersion))
	}

	s.mu.Lock()
	s.protocolVersion = supportedProtocolVersion
	s.clientCapabilities = p.Capabilities
	s.state = stateInitializing
	s.mu.Unlock()

	result := map[string]interface{}{
		"protocolVersion": supportedProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{
				"listChanged": false,
			},
		},
		"serverInfo": map[string]interface{}{
			"name":        "attackkb",
			"version":     s.version,
			"description": "ATT&CK knowledge base - look up and search adversary techniques",
		},
	}

	return result, nil
}
