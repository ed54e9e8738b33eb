package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

const testBundle = `{
  "type": "bundle",
  "objects": [
    {
      "type": "attack-pattern",
      "name": "PowerShell",
      "description": "Adversaries may abuse PowerShell commands and scripts for execution.",
      "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "execution"}],
      "external_references": [{"source_name": "mitre-attack", "external_id": "T1059.001"}]
    },
    {
      "type": "attack-pattern",
      "name": "Process Injection",
      "description": "Adversaries may inject code into processes.",
      "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "defense-evasion"}],
      "external_references": [{"source_name": "mitre-attack", "external_id": "T1055"}]
    }
  ]
}`

// newTestIndex builds an index over the test bundle
func newTestIndex(t *testing.T) *knowledge.Index {
	t.Helper()
	doc, err := knowledge.DecodeJSON(strings.NewReader(testBundle))
	require.NoError(t, err)
	records, err := knowledge.LoadRecords(doc)
	require.NoError(t, err)

	idx := knowledge.NewIndex()
	idx.Build(records)
	return idx
}

// newInitializedServer returns a server past the handshake
func newInitializedServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(newTestIndex(t), WithLogger(zap.NewNop()))
	srv.setState(stateInitialized)
	return srv
}

func TestServer_InitialState(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())

	assert.Equal(t, stateNotInitialized, srv.getState())
	assert.Equal(t, knowledge.DefaultTokenLimit, srv.tokenLimit)
	assert.Equal(t, "dev", srv.version)
}

func TestServer_Options(t *testing.T) {
	srv := NewServer(knowledge.NewIndex(), WithTokenLimit(1200), WithVersion("1.2.3"), WithLogger(nil))

	assert.Equal(t, 1200, srv.tokenLimit)
	assert.Equal(t, "1.2.3", srv.version)
	assert.NotNil(t, srv.logger, "nil logger option keeps the no-op logger")

	srv = NewServer(knowledge.NewIndex(), WithTokenLimit(0))
	assert.Equal(t, knowledge.DefaultTokenLimit, srv.tokenLimit)
}

func TestServer_StateTransitions(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())

	srv.setState(stateInitializing)
	assert.Equal(t, stateInitializing, srv.getState())

	srv.setState(stateInitialized)
	assert.Equal(t, stateInitialized, srv.getState())
}

func TestToolDefinition(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())
	tool := srv.ToolDefinition()

	assert.Equal(t, ToolName, tool["name"])

	schema := tool["inputSchema"].(map[string]interface{})
	assert.Equal(t, []string{"queries"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]interface{})
	for _, param := range searchParams {
		assert.Contains(t, props, param)
	}
	field := props["field"].(map[string]interface{})
	assert.Equal(t, []string{"id", "name", "description", "all"}, field["enum"])
}

func TestHandleRequest_AgentMode(t *testing.T) {
	srv := newInitializedServer(t)

	text, err := srv.HandleRequest(SearchArgs{Queries: []string{"t1055", "powershell"}, Field: knowledge.ScopeAll})
	require.NoError(t, err)

	var resp knowledge.AgentResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, 2, resp.MatchCount)
	require.Len(t, resp.Techniques, 2)
	assert.Equal(t, "T1055", resp.Techniques[0].ID)
	assert.Equal(t, "T1059.001", resp.Techniques[1].ID)
	assert.Empty(t, resp.Detailed)
}

func TestHandleRequest_HumanMode(t *testing.T) {
	srv := newInitializedServer(t)

	text, err := srv.HandleRequest(SearchArgs{Queries: []string{"adversaries"}, Field: knowledge.ScopeDescription, Verbosity: "human"})
	require.NoError(t, err)

	var resp knowledge.AgentResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, 2, resp.MatchCount)
	require.Len(t, resp.Detailed, 2)
	assert.Equal(t, "Process Injection", resp.Detailed[1].Name)
	assert.Empty(t, resp.Techniques)
}

func TestHandleRequest_InvalidRegex(t *testing.T) {
	srv := newInitializedServer(t)

	_, err := srv.HandleRequest(SearchArgs{Queries: []string{"(unclosed"}, Regex: true})

	var qerr *knowledge.QueryError
	assert.ErrorAs(t, err, &qerr)
}

func TestHandleRequest_SeesRebuiltIndex(t *testing.T) {
	srv := newInitializedServer(t)

	doc, err := knowledge.DecodeJSON(strings.NewReader(`[{"id": "T1566", "name": "Phishing"}]`))
	require.NoError(t, err)
	records, err := knowledge.LoadRecords(doc)
	require.NoError(t, err)
	srv.index.Build(records)

	text, err := srv.HandleRequest(SearchArgs{Queries: []string{"T1566"}})
	require.NoError(t, err)
	assert.Contains(t, text, "Phishing")
}
