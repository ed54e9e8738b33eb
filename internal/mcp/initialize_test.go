package mcp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

func TestHandleInitialize_Success(t *testing.T) {
	srv := NewServer(knowledge.NewIndex(), WithVersion("1.0.0"))

	params := map[string]interface{}{
		"protocolVersion": "2025-11-25",
		"capabilities":    map[string]interface{}{"roots": map[string]interface{}{}},
		"clientInfo": map[string]interface{}{
			"name":    "TestClient",
			"version": "1.0.0",
		},
	}
	paramsJSON, _ := json.Marshal(params)

	result, err := handleInitialize(srv, paramsJSON)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resultMap := result.(map[string]interface{})
	if resultMap["protocolVersion"] != "2025-11-25" {
		t.Errorf("expected protocol version 2025-11-25, got %v", resultMap["protocolVersion"])
	}

	info := resultMap["serverInfo"].(map[string]interface{})
	if info["name"] != "attackkb" || info["version"] != "1.0.0" {
		t.Errorf("unexpected serverInfo: %v", info)
	}

	if srv.getState() != stateInitializing {
		t.Errorf("expected state Initializing, got %v", srv.getState())
	}
	if _, ok := srv.clientCapabilities["roots"]; !ok {
		t.Error("expected client capabilities to be stored")
	}
}

func TestHandleInitialize_OtherVersionGetsOurs(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())

	result, err := handleInitialize(srv, json.RawMessage(`{"protocolVersion":"2024-11-05","capabilities":{}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if v := result.(map[string]interface{})["protocolVersion"]; v != supportedProtocolVersion {
		t.Errorf("expected protocol version %s, got %v", supportedProtocolVersion, v)
	}
}

func TestHandleInitialize_DuplicateInit(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())
	srv.setState(stateInitialized)

	_, err := handleInitialize(srv, json.RawMessage(`{"protocolVersion":"2025-11-25","capabilities":{}}`))

	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected invalid request error for duplicate initialization, got %v", err)
	}
}

func TestHandleInitialize_InvalidParams(t *testing.T) {
	srv := NewServer(knowledge.NewIndex())

	_, err := handleInitialize(srv, json.RawMessage(`["not", "an", "object"]`))

	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.Code != ErrCodeInvalidParams {
		t.Fatalf("expected invalid params error, got %v", err)
	}
	if srv.getState() != stateNotInitialized {
		t.Errorf("expected state to stay NotInitialized, got %v", srv.getState())
	}
}
