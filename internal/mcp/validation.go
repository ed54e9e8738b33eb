package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

// Argument bounds
const (
	maxQueries     = 50
	maxQueryLength = 1000
)

// searchParams lists the accepted tool arguments
var searchParams = []string{"queries", "field", "regex", "verbosity"}

// SearchArgs holds validated attackkb_search arguments
type SearchArgs struct {
	Queries   []string
	Field     knowledge.FieldScope
	Regex     bool
	Verbosity string
}

// validateToolName validates the tool name is attackkb_search
func validateToolName(name string) error {
	if name != ToolName {
		return protocolErrorf(ErrCodeInvalidParams, "unknown tool: %s", name)
	}
	return nil
}

// parseSearchArgs validates raw tool arguments
func parseSearchArgs(args map[string]interface{}) (SearchArgs, error) {
	if err := validateNoUnknownParams(args, searchParams); err != nil {
		return SearchArgs{}, err
	}

	queries, err := validateQueries(args["queries"])
	if err != nil {
		return SearchArgs{}, err
	}

	field, err := validateField(args["field"])
	if err != nil {
		return SearchArgs{}, err
	}

	regex := false
	if v, ok := args["regex"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return SearchArgs{}, fmt.Errorf("Invalid regex '%v'. Must be true or false", v)
		}
		regex = b
	}

	verbosity, err := validateVerbosity(args["verbosity"])
	if err != nil {
		return SearchArgs{}, err
	}

	return SearchArgs{Queries: queries, Field: field, Regex: regex, Verbosity: verbosity}, nil
}

// validateQueries validates the queries parameter
func validateQueries(v interface{}) ([]string, error) {
	if v == nil {
		return nil, fmt.Errorf("queries is required")
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("queries must be an array of strings")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("queries must be non-empty")
	}
	if len(items) > maxQueries {
		return nil, fmt.Errorf("queries exceeds maximum of %d entries", maxQueries)
	}

	queries := make([]string, 0, len(items))
	for i, item := range items {
		q, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("queries[%d] must be a string", i)
		}
		if strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("queries[%d] must be non-empty", i)
		}
		if len(q) > maxQueryLength {
			return nil, fmt.Errorf("queries[%d] exceeds maximum length of %d characters", i, maxQueryLength)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// validateField validates the field parameter
func validateField(v interface{}) (knowledge.FieldScope, error) {
	if v == nil {
		return knowledge.ScopeAll, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field must be a string")
	}
	scope, err := knowledge.ParseFieldScope(s)
	if err != nil {
		return "", fmt.Errorf("Invalid field '%s'. Supported fields: id, name, description, all", s)
	}
	return scope, nil
}

// validateVerbosity validates the verbosity parameter
func validateVerbosity(v interface{}) (string, error) {
	if v == nil {
		return "agent", nil
	}
	verbosity, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("verbosity must be a string")
	}
	switch verbosity {
	case "":
		return "agent", nil
	case "agent", "human":
		return verbosity, nil
	}
	return "", fmt.Errorf("Invalid verbosity '%s'. Supported values: agent, human", verbosity)
}

// validateNoUnknownParams checks for unknown parameters
func validateNoUnknownParams(args map[string]interface{}, allowed []string) error {
	allowedMap := make(map[string]bool)
	for _, key := range allowed {
		allowedMap[key] = true
	}

	var unknown []string
	for key := range args {
		if !allowedMap[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	return fmt.Errorf("Unknown parameter '%s'. Supported parameters: %s", unknown[0], strings.Join(allowed, ", "))
}
