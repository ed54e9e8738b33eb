package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/spf13/cobra"
)

// errValidationFailed makes the process exit non-zero after the report
var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [technique-id]",
	Short: "Validate loaded technique records",
	Long: `Check every loaded record for an ID and name, and warn about missing
descriptions, missing tactics, deprecated or revoked records and duplicate IDs.

Exits non-zero when any record has errors.

Examples:
  # Validate all records
  attackkb validate

  # Validate a single technique
  attackkb validate T1055`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	records := index.Records()

	if len(records) == 0 {
		fmt.Println("No records found to validate")
		return nil
	}

	results := knowledge.ValidateAll(records)

	// Filter to a specific technique if provided
	if len(args) > 0 {
		want := knowledge.NormalizeID(args[0])
		var filtered []knowledge.ValidationResult
		for _, r := range results {
			if strings.EqualFold(r.RecordID, want) {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("technique not found: %s", args[0])
		}
		results = filtered
	}

	hasErrors := false
	totalErrors := 0
	totalWarnings := 0

	for _, result := range results {
		totalErrors += len(result.Errors)
		totalWarnings += len(result.Warnings)

		if !result.IsValid {
			hasErrors = true
		}

		// Print results for each record
		if len(result.Errors) > 0 || len(result.Warnings) > 0 || verbose {
			status := "✓"
			if !result.IsValid {
				status = "✗"
			}
			fmt.Printf("%s %s\n", status, result.RecordID)

			for _, err := range result.Errors {
				fmt.Printf("  ERROR: %s - %s\n", err.Field, err.Message)
			}
			for _, warn := range result.Warnings {
				fmt.Printf("  WARN:  %s - %s\n", warn.Field, warn.Message)
			}
		}
	}

	// Summary
	fmt.Printf("\nValidated %d record(s): %d error(s), %d warning(s)\n",
		len(results), totalErrors, totalWarnings)

	if hasErrors {
		return errValidationFailed
	}

	return nil
}
