package knowledge

import "strings"

// Matches reports whether rec satisfies q within scope. Exact ID queries
// ignore the scope and only compare identifiers.
func (q Query) Matches(rec *Object, scope FieldScope) bool {
	if q.Mode == ModeExactID {
		id, ok := ExtractID(rec)
		return ok && id == q.id
	}

	for _, text := range scopedTexts(rec, scope) {
		if q.matchText(text) {
			return true
		}
	}
	return false
}

// matchText applies a free-text query to one field. Absent fields arrive as
// empty strings.
func (q Query) matchText(text string) bool {
	switch q.Mode {
	case ModeRegex:
		if text == "" {
			return q.pattern.String() == "(?i)"
		}
		return q.pattern.MatchString(text)
	case ModeContains:
		return strings.Contains(strings.ToLower(text), q.needle)
	}
	return false
}

// scopedTexts returns the extracted texts a free-text query may match
func scopedTexts(rec *Object, scope FieldScope) []string {
	id := func() string { s, _ := ExtractID(rec); return s }
	name := func() string { s, _ := ExtractName(rec); return s }
	desc := func() string { s, _ := ExtractDescription(rec); return s }

	switch scope {
	case ScopeID:
		return []string{id()}
	case ScopeName:
		return []string{name()}
	case ScopeDescription:
		return []string{desc()}
	default:
		return []string{id(), name(), desc()}
	}
}
