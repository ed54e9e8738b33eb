package knowledge

import (
	"fmt"
)

// ValidationError represents a single validation error
type ValidationError struct {
	RecordID string
	Field    string
	Message  string
	Severity string // "error" or "warning"
}

func (e ValidationError) String() string {
	return fmt.Sprintf("[%s] %s: %s - %s", e.Severity, e.RecordID, e.Field, e.Message)
}

// ValidationResult holds all validation errors for a record
type ValidationResult struct {
	RecordID string
	Position int
	IsValid  bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// Validate validates a single record. position is the record's index in
// load order and labels records without an ID.
func Validate(rec *Object, position int) ValidationResult {
	entry := NewResultRecord(rec)

	label := entry.ID
	if label == "" {
		label = fmt.Sprintf("record #%d", position+1)
	}

	result := ValidationResult{
		RecordID: label,
		Position: position,
		IsValid:  true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationError, 0),
	}

	if entry.ID == "" {
		result.addError(label, "id", "no technique ID found in id, external_id, attack_id, technique_id, or external_references")
	}
	if entry.Name == "" {
		result.addError(label, "name", "no name found in name, technique, title, or x_mitre_deprecated_name")
	}

	if entry.Description == "" {
		result.addWarning(label, "description", "no description, summary, or details")
	}
	if len(entry.Tactics) == 0 {
		result.addWarning(label, "tactics", "no kill chain phases or tactics")
	}

	for _, flag := range []string{"revoked", "x_mitre_deprecated"} {
		if v, ok := rec.Get(flag); ok {
			if b, ok := v.AsBool(); ok && b {
				result.addWarning(label, flag, "record is marked "+flag)
			}
		}
	}

	return result
}

func (r *ValidationResult) addError(recordID, field, message string) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{
		RecordID: recordID,
		Field:    field,
		Message:  message,
		Severity: "error",
	})
}

func (r *ValidationResult) addWarning(recordID, field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{
		RecordID: recordID,
		Field:    field,
		Message:  message,
		Severity: "warning",
	})
}

// ValidateAll validates all records and flags technique IDs that appear
// more than once
func ValidateAll(records []*Object) []ValidationResult {
	results := make([]ValidationResult, 0, len(records))
	firstSeen := make(map[string]int)

	for i, rec := range records {
		result := Validate(rec, i)

		if id, ok := ExtractID(rec); ok {
			if first, dup := firstSeen[id]; dup {
				result.addWarning(result.RecordID, "id",
					fmt.Sprintf("duplicate of record #%d", first+1))
			} else {
				firstSeen[id] = i
			}
		}

		results = append(results, result)
	}
	return results
}
