package knowledge

import (
	"regexp"
	"strings"
)

// techniqueIDPattern matches base techniques (T1055) and sub-techniques (T1059.001)
var techniqueIDPattern = regexp.MustCompile(`(?i)^T\d{4}(\.\d{3})?$`)

// NormalizeID returns the canonical form of a technique ID: no whitespace, uppercase
func NormalizeID(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// IsID reports whether s, once trimmed, is a technique ID
func IsID(s string) bool {
	return techniqueIDPattern.MatchString(strings.TrimSpace(s))
}

// Query is a classified search string
type Query struct {
	Text string
	Mode Mode

	id      string
	needle  string
	pattern *regexp.Regexp
}

// ClassifyQuery decides how text is matched. Technique IDs always use exact
// matching, even when regex mode was requested.
func ClassifyQuery(text string, regex bool) (Query, error) {
	if IsID(text) {
		return Query{Text: text, Mode: ModeExactID, id: NormalizeID(text)}, nil
	}

	if regex {
		re, err := regexp.Compile("(?i)" + text)
		if err != nil {
			return Query{}, &QueryError{Query: text, Err: err}
		}
		return Query{Text: text, Mode: ModeRegex, pattern: re}, nil
	}

	return Query{Text: text, Mode: ModeContains, needle: strings.ToLower(text)}, nil
}

// ClassifyQueries classifies every query before any matching happens; the
// first failure aborts the whole batch.
func ClassifyQueries(texts []string, regex bool) ([]Query, error) {
	queries := make([]Query, 0, len(texts))
	for _, text := range texts {
		q, err := ClassifyQuery(text, regex)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}
