package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/knowledge"
	"github.com/mark-chris/attackkb/internal/stig"
)

var stigCmd = &cobra.Command{
	Use:   "stig <report.xml>",
	Short: "Summarize failed rules of a STIG/XCCDF report",
	Long: `Scan an XCCDF results document and print every rule-result that did
not pass.

Examples:
  attackkb stig scan-results.xml
  attackkb stig scan-results.xml -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runStig,
}

func runStig(cmd *cobra.Command, args []string) error {
	report, err := stig.ParseFile(args[0])
	if err != nil {
		return err
	}

	logger.Debug("stig report parsed",
		zap.String("file", args[0]),
		zap.Int("checked", report.Checked),
		zap.Int("findings", len(report.Findings)))

	if getFormat() == knowledge.FormatJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(stig.Format(report))
	return nil
}
