package cli

import (
	"fmt"

	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/spf13/cobra"
)

var listTactic string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all loaded techniques",
	Long: `List the techniques in the knowledge base, in load order.

Examples:
  # List all techniques
  attackkb list

  # Only techniques of one tactic
  attackkb list --tactic persistence`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTactic, "tactic", "",
		"Only list techniques labelled with this tactic")
}

func runList(cmd *cobra.Command, args []string) error {
	var techniques []knowledge.ResultRecord
	if listTactic != "" {
		for _, r := range index.GetByTactic(listTactic) {
			techniques = append(techniques, *r)
		}
	} else {
		techniques = index.GetAll()
	}

	if len(techniques) == 0 {
		if listTactic != "" {
			fmt.Printf("No techniques found for tactic %q\n", listTactic)
		} else {
			fmt.Println("No techniques found")
		}
		return nil
	}

	output, err := knowledge.FormatResults(techniques, getFormat(), renderOptions())
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(output)
	return nil
}
