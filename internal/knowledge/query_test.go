package knowledge

import (
	"errors"
	"testing"
)

const powershellDoc = `{"techniques":[{"id":"T1059.001","name":"PowerShell","description":"Adversaries abuse PowerShell..."}]}`

const injectionBundle = `{"objects":[{"external_references":[{"external_id":"T1055"}],"name":"Process Injection"}]}`

// loadDoc decodes a document and locates its records
func loadDoc(t *testing.T, doc string) []*Object {
	t.Helper()
	records, err := LoadRecords(mustDecode(t, doc))
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	return records
}

// TestRun_ExactIDLookup covers a technique code query against a wrapped list
func TestRun_ExactIDLookup(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	results, err := Run(records, []string{"T1059.001"}, Options{Scope: ScopeAll})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].ID != "T1059.001" || results[0].Name != "PowerShell" {
		t.Errorf("Expected T1059.001/PowerShell, got %s/%s", results[0].ID, results[0].Name)
	}
	if results[0].Raw != records[0] {
		t.Error("Expected result to reference its raw record")
	}
}

// TestRun_ExactIDIgnoresCaseAndWhitespace checks every spelling of the same code
func TestRun_ExactIDIgnoresCaseAndWhitespace(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	for _, q := range []string{"t1059.001", " T1059.001 ", "T1059.001"} {
		t.Run(q, func(t *testing.T) {
			results, err := Run(records, []string{q}, Options{})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if len(results) != 1 {
				t.Errorf("Expected 1 result for %q, got %d", q, len(results))
			}
		})
	}
}

// TestRun_ExactIDDoesNotMatchParentOrChild checks exact comparison of codes
func TestRun_ExactIDDoesNotMatchParentOrChild(t *testing.T) {
	records := loadDoc(t, `[{"id":"T1059","name":"Command and Scripting Interpreter"},{"id":"T1059.001","name":"PowerShell"}]`)

	results, err := Run(records, []string{"T1059"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "T1059" {
		t.Errorf("Expected only T1059, got %+v", results)
	}
}

// TestRun_SubstringDefault matches free text on name and description
func TestRun_SubstringDefault(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	results, err := Run(records, []string{"powershell"}, Options{Scope: ScopeAll})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "PowerShell" {
		t.Fatalf("Expected the PowerShell record, got %+v", results)
	}

	for _, scope := range []FieldScope{ScopeName, ScopeDescription} {
		results, err := Run(records, []string{"powershell"}, Options{Scope: scope})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("Expected a match under scope %s, got %d", scope, len(results))
		}
	}
}

// TestRun_NestedReferenceID resolves the code through external_references
func TestRun_NestedReferenceID(t *testing.T) {
	records := loadDoc(t, injectionBundle)

	results, err := Run(records, []string{"T1055"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "T1055" || results[0].Name != "Process Injection" {
		t.Errorf("Expected T1055/Process Injection, got %+v", results)
	}
}

// TestRun_RegexOnName matches a regex through the name field
func TestRun_RegexOnName(t *testing.T) {
	records := loadDoc(t, injectionBundle)

	results, err := Run(records, []string{".*Inject.*"}, Options{Scope: ScopeAll, Regex: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	results, err = Run(records, []string{"inject"}, Options{Scope: ScopeName, Regex: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected case-insensitive regex match, got %d", len(results))
	}

	results, err = Run(records, []string{"^Inject"}, Options{Scope: ScopeName, Regex: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected anchored regex not to match, got %d", len(results))
	}
}

// TestRun_DedupAcrossQueries collapses one record matched by two queries
func TestRun_DedupAcrossQueries(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	results, err := Run(records, []string{"T1059.001", "powershell"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 deduplicated result, got %d", len(results))
	}
}

// TestRun_DedupLastWriteWinsFirstPositionKept checks overwrite semantics
func TestRun_DedupLastWriteWinsFirstPositionKept(t *testing.T) {
	records := loadDoc(t, `[
		{"id": "T0001", "name": "Alpha", "description": "first copy"},
		{"id": "T0002", "name": "Beta"},
		{"id": "T0001", "name": "Alpha", "description": "second copy"}
	]`)

	results, err := Run(records, []string{"alpha", "beta"}, Options{Scope: ScopeName})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "T0001" || results[1].ID != "T0002" {
		t.Errorf("Expected first-insertion order T0001, T0002; got %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Description != "second copy" {
		t.Errorf("Expected last write to win, got %q", results[0].Description)
	}
	if results[0].Raw != records[2] {
		t.Error("Expected surviving result to reference the last matching record")
	}
}

// TestRun_DedupKeyIncludesName keeps records that share an ID but not a name
func TestRun_DedupKeyIncludesName(t *testing.T) {
	records := loadDoc(t, `[{"id": "T0001", "name": "Enterprise"}, {"id": "T0001", "name": "Mobile"}]`)

	results, err := Run(records, []string{"T0001"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
}

// TestRun_ScopeRestriction checks that a description-only match respects scope
func TestRun_ScopeRestriction(t *testing.T) {
	records := loadDoc(t, `[{"id": "T1566", "name": "Phishing", "description": "Adversaries send spearphishing messages."}]`)

	tests := []struct {
		scope FieldScope
		want  int
	}{
		{ScopeAll, 1},
		{ScopeDescription, 1},
		{ScopeName, 0},
		{ScopeID, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			results, err := Run(records, []string{"spearphishing"}, Options{Scope: tt.scope})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("scope %s: expected %d results, got %d", tt.scope, tt.want, len(results))
			}
		})
	}
}

// TestRun_IDScopeFreeText matches partial codes through the identifier
func TestRun_IDScopeFreeText(t *testing.T) {
	records := loadDoc(t, `[{"id": "T1059.001", "name": "PowerShell"}, {"id": "T1055", "name": "Process Injection"}, {"name": "No ID"}]`)

	results, err := Run(records, []string{"1059"}, Options{Scope: ScopeID})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "T1059.001" {
		t.Errorf("Expected only T1059.001, got %+v", results)
	}
}

// TestRun_RecordsWithoutIDNeverMatchExact checks absent identifiers
func TestRun_RecordsWithoutIDNeverMatchExact(t *testing.T) {
	records := loadDoc(t, `[{"name": "T1059"}, {"description": "see T1059"}]`)

	results, err := Run(records, []string{"T1059"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

// TestRun_MissingFieldsInRegexMode checks that absent text does not satisfy a pattern
func TestRun_MissingFieldsInRegexMode(t *testing.T) {
	records := loadDoc(t, `[{"id": "T0001"}]`)

	results, err := Run(records, []string{"^$"}, Options{Scope: ScopeDescription, Regex: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected absent description not to match, got %d", len(results))
	}
}

// TestRun_InvalidRegexAbortsRun checks the pre-flight classification
func TestRun_InvalidRegexAbortsRun(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	results, err := Run(records, []string{"powershell", "(unclosed"}, Options{Regex: true})

	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("Run error = %v, want *QueryError", err)
	}
	if results != nil {
		t.Errorf("Expected no partial results, got %d", len(results))
	}
}

// TestRun_QueryOrderDoesNotChangeMatchSet compares two query orders
func TestRun_QueryOrderDoesNotChangeMatchSet(t *testing.T) {
	records := loadDoc(t, `[{"id": "T0001", "name": "Alpha"}, {"id": "T0002", "name": "Beta"}]`)

	forward, err := Run(records, []string{"alpha", "beta"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	backward, err := Run(records, []string{"beta", "alpha"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(forward) != 2 || len(backward) != 2 {
		t.Fatalf("Expected 2 results both ways, got %d and %d", len(forward), len(backward))
	}
	if backward[0].ID != "T0002" {
		t.Errorf("Expected insertion order to follow query order, got %s first", backward[0].ID)
	}
}

func TestIsDetailView(t *testing.T) {
	records := loadDoc(t, powershellDoc)

	exact, _ := ClassifyQueries([]string{"T1059.001"}, false)
	text, _ := ClassifyQueries([]string{"powershell"}, false)
	both, _ := ClassifyQueries([]string{"T1059.001", "T1059.001"}, false)
	results := RunClassified(records, exact, ScopeAll)

	if !IsDetailView(exact, results) {
		t.Error("Expected detail view for a single exact ID with one result")
	}
	if IsDetailView(text, results) {
		t.Error("Expected no detail view for a free-text query")
	}
	if IsDetailView(both, results) {
		t.Error("Expected no detail view for multiple queries")
	}
	if IsDetailView(exact, nil) {
		t.Error("Expected no detail view without results")
	}
}
