package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

// ToolName is the single tool the server exposes
const ToolName = "attackkb_search"

// Result limits per verbosity
const (
	agentResultLimit = 10
	humanResultLimit = 25
)

// maxMessageSize bounds a single newline-delimited message
const maxMessageSize = 4 * 1024 * 1024

// serverState represents the server lifecycle state
type serverState int

const (
	stateNotInitialized serverState = iota
	stateInitializing
	stateInitialized
)

// Server implements the Model Context Protocol for attackkb
type Server struct {
	index              *knowledge.Index
	logger             *zap.Logger
	tokenLimit         int
	version            string
	state              serverState
	protocolVersion    string
	clientCapabilities map[string]interface{}
	mu                 sync.RWMutex
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTokenLimit sets the token budget of agent-mode responses
func WithTokenLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.tokenLimit = limit
		}
	}
}

// WithVersion sets the version reported in serverInfo
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates a new MCP server over index. The index may be rebuilt
// while the server runs.
func NewServer(index *knowledge.Index, opts ...Option) *Server {
	s := &Server{
		index:      index,
		logger:     zap.NewNop(),
		tokenLimit: knowledge.DefaultTokenLimit,
		version:    "dev",
		state:      stateNotInitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// setState sets the server state (thread-safe)
func (s *Server) setState(state serverState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// getState gets the server state (thread-safe)
func (s *Server) getState() serverState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ToolDefinition returns the MCP tool definition for attackkb_search
func (s *Server) ToolDefinition() map[string]interface{} {
	scopes := make([]string, len(knowledge.FieldScopes))
	for i, scope := range knowledge.FieldScopes {
		scopes[i] = string(scope)
	}

	return map[string]interface{}{
		"name":        ToolName,
		"description": "Search the ATT&CK knowledge base. Technique IDs such as T1059.001 are looked up exactly; other queries match case-insensitively as substrings, or as regular expressions when regex is true.",
		"inputSchema": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"queries": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string", "minLength": 1, "maxLength": maxQueryLength},
					"minItems":    1,
					"maxItems":    maxQueries,
					"description": "Technique IDs or search terms; results of all queries are merged",
				},
				"field": map[string]interface{}{
					"type":        "string",
					"enum":        scopes,
					"default":     string(knowledge.ScopeAll),
					"description": "Which extracted field free-text queries are matched against",
				},
				"regex": map[string]interface{}{
					"type":        "boolean",
					"default":     false,
					"description": "Treat queries that are not technique IDs as case-insensitive regular expressions",
				},
				"verbosity": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"agent", "human"},
					"default":     "agent",
					"description": "Output format: 'agent' for concise, 'human' for detailed",
				},
			},
			"required":             []string{"queries"},
			"additionalProperties": false,
		},
	}
}

// HandleRequest runs a validated search and returns the JSON result text
func (s *Server) HandleRequest(args SearchArgs) (string, error) {
	results, err := s.index.Search(args.Queries, knowledge.Options{Scope: args.Field, Regex: args.Regex})
	if err != nil {
		return "", err
	}

	var resp knowledge.AgentResponse
	if args.Verbosity == "human" {
		resp = knowledge.BuildVerboseResponse(results, humanResultLimit)
	} else {
		resp = knowledge.BuildAgentResponse(results, agentResultLimit, s.tokenLimit, s.logger)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(data), nil
}

// ServeStdio runs the MCP server over newline-delimited JSON-RPC messages
// until r is exhausted. A message longer than maxMessageSize is answered with
// a parse error and skipped.
func (s *Server) ServeStdio(r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, 64*1024)

	for {
		frame, tooLarge, readErr := readFrame(reader, maxMessageSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("failed to read request: %w", readErr)
		}

		var resp []byte
		switch line := bytes.TrimSpace(frame); {
		case tooLarge:
			data, err := s.encodeError(protocolErrorf(ErrCodeParseError, "message exceeds %d bytes", maxMessageSize), nil)
			if err != nil {
				return err
			}
			resp = data
		case len(line) > 0:
			data, err := s.handleMessage(line)
			if err != nil {
				return err
			}
			resp = data
		}

		if len(resp) > 0 {
			if _, err := w.Write(append(resp, '\n')); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

// readFrame reads one newline-terminated frame. A frame longer than limit is
// consumed up to its newline and reported as tooLarge without its content.
func readFrame(r *bufio.Reader, limit int) (frame []byte, tooLarge bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLarge {
			if len(frame)+len(chunk) > limit+1 {
				tooLarge = true
				frame = nil
			} else {
				frame = append(frame, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return frame, tooLarge, err
	}
}
