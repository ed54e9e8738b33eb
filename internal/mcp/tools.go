package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

// toolsCallParams represents the tools/call request parameters
type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// toolContent is one content block of a tool result
type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolCallResult represents the tools/call response
type toolCallResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// handleToolsList handles the tools/list request
func handleToolsList(s *Server, params json.RawMessage) (interface{}, error) {
	if err := requireInitialized(s); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"tools": []interface{}{s.ToolDefinition()},
	}, nil
}

// handleToolsCall handles the tools/call request. Bad arguments and failed
// searches are tool execution errors; an unknown tool is a protocol error.
func handleToolsCall(s *Server, params json.RawMessage) (interface{}, error) {
	if err := requireInitialized(s); err != nil {
		return nil, err
	}

	var p toolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, protocolErrorf(ErrCodeInvalidParams, "invalid tools/call params: %v", err)
	}

	if err := validateToolName(p.Name); err != nil {
		return nil, err
	}

	args, err := parseSearchArgs(p.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	text, err := s.HandleRequest(args)
	if err != nil {
		var qerr *knowledge.QueryError
		if errors.As(err, &qerr) {
			return toolError(qerr.Error()), nil
		}
		return toolError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	return toolCallResult{
		Content: []toolContent{{Type: "text", Text: text}},
		IsError: false,
	}, nil
}

// toolError creates a tool execution error result
func toolError(message string) toolCallResult {
	return toolCallResult{
		Content: []toolContent{{Type: "text", Text: message}},
		IsError: true,
	}
}
