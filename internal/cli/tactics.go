package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/spf13/cobra"
)

var tacticsCmd = &cobra.Command{
	Use:   "tactics",
	Short: "List tactics with technique counts",
	Long: `List every tactic label found in the loaded techniques with the number
of techniques carrying it, most common first.

Examples:
  attackkb tactics
  attackkb tactics -f json`,
	Args: cobra.NoArgs,
	RunE: runTactics,
}

func runTactics(cmd *cobra.Command, args []string) error {
	counts := index.TacticCounts()

	switch getFormat() {
	case knowledge.FormatJSON, knowledge.FormatRaw:
		data, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(counts) == 0 {
		fmt.Println("No tactics found")
		return nil
	}

	for _, c := range counts {
		fmt.Printf("%-28s %d\n", c.Tactic, c.Count)
	}
	return nil
}
