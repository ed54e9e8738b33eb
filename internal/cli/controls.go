package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mark-chris/attackkb/internal/controls"
	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/spf13/cobra"
)

var controlsCmd = &cobra.Command{
	Use:   "controls <mapping.yaml>",
	Short: "Print a security control mapping",
	Long: `Print a YAML control mapping (control ID to name, component and notes)
in document order.

Examples:
  attackkb controls rmf_controls.yaml
  attackkb controls rmf_controls.yaml -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runControls,
}

func runControls(cmd *cobra.Command, args []string) error {
	mapped, err := controls.LoadFile(args[0])
	if err != nil {
		return err
	}

	if getFormat() == knowledge.FormatJSON {
		data, err := json.MarshalIndent(mapped, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(controls.Format(mapped))
	return nil
}
