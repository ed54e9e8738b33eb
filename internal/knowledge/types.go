package knowledge

import (
	"fmt"
	"strings"
)

// Mode is how a query is matched against records
type Mode string

// Query modes. Every query is classified into exactly one of these.
const (
	ModeExactID  Mode = "exact_id"
	ModeRegex    Mode = "regex"
	ModeContains Mode = "contains"
)

// FieldScope selects which extracted text a free-text query is matched against
type FieldScope string

// Field scopes.
const (
	ScopeID          FieldScope = "id"
	ScopeName        FieldScope = "name"
	ScopeDescription FieldScope = "description"
	ScopeAll         FieldScope = "all"
)

// FieldScopes lists the accepted scopes in display order
var FieldScopes = []FieldScope{ScopeID, ScopeName, ScopeDescription, ScopeAll}

// ParseFieldScope converts a user-supplied scope name. Empty means ScopeAll.
func ParseFieldScope(s string) (FieldScope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ScopeAll, nil
	}
	for _, scope := range FieldScopes {
		if string(scope) == s {
			return scope, nil
		}
	}
	return "", fmt.Errorf("invalid field scope %q: must be id, name, description, or all", s)
}

// Options configures a search run
type Options struct {
	Scope FieldScope
	Regex bool // opt in to regex mode for queries that are not technique IDs
}

// ResultRecord is the canonical view of a matched record. Empty strings mean
// the field could not be extracted.
type ResultRecord struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tactics     []string `json:"tactics"`
	Raw         *Object  `json:"-"`
}

// NewResultRecord extracts the canonical fields of rec
func NewResultRecord(rec *Object) ResultRecord {
	id, _ := ExtractID(rec)
	name, _ := ExtractName(rec)
	desc, _ := ExtractDescription(rec)
	return ResultRecord{
		ID:          id,
		Name:        name,
		Description: desc,
		Tactics:     ExtractTactics(rec),
		Raw:         rec,
	}
}

// resultKey is the deduplication identity of a ResultRecord
type resultKey struct {
	id   string
	name string
}

func (r ResultRecord) key() resultKey {
	return resultKey{id: r.ID, name: r.Name}
}

// SchemaError reports a document without any list of record-like objects
type SchemaError struct {
	Source string
}

func (e *SchemaError) Error() string {
	if e.Source == "" {
		return "no list of record-like objects found"
	}
	return fmt.Sprintf("no list of record-like objects found in %s", e.Source)
}

// QueryError reports a regex query that failed to compile
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
