package cli

import (
	"fmt"

	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <technique-id>",
	Short: "Get a specific technique by ID",
	Long: `Retrieve detailed information about a single technique.

Examples:
  # Technique details
  attackkb get T1055

  # As JSON, including the raw record
  attackkb get t1059.001 -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	techniqueID := args[0]

	// Look up technique
	technique := index.GetByID(techniqueID)
	if technique == nil {
		return fmt.Errorf("technique not found: %s", techniqueID)
	}

	// Format output
	output, err := knowledge.FormatDetail(*technique, getFormat(), renderOptions())
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(output)
	return nil
}
