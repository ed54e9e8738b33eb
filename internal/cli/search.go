package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

var (
	searchField string
	searchRegex bool
	searchRaw   bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search techniques by ID or text",
	Long: `Search the loaded techniques. Queries shaped like technique IDs
(T1059, T1059.001) are looked up exactly; any other query matches
case-insensitively as a substring, or as a regular expression with --regex.
Results of all queries are merged in order of first match, without duplicates.

A single ID query with a single result is shown in detail.

Examples:
  # Exact lookup
  attackkb search T1059.001

  # Substring search over descriptions
  attackkb search --field description "credential dumping"

  # Several queries at once, as JSON
  attackkb search T1055 powershell -f json

  # Raw records in their original form
  attackkb search T1003 --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchField, "field", "",
		"Field free-text queries match: id, name, description or all (default from config)")
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false,
		"Treat free-text queries as case-insensitive regular expressions")
	searchCmd.Flags().BoolVar(&searchRaw, "raw", false,
		"Print the matching records as they appear in the export")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0,
		"Maximum number of results to print (0 for all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	field := searchField
	if field == "" {
		field = cfg.Field
	}
	scope, err := knowledge.ParseFieldScope(field)
	if err != nil {
		return err
	}

	regex := cfg.Regex
	if cmd.Flags().Changed("regex") {
		regex = searchRegex
	}

	queries, err := knowledge.ClassifyQueries(args, regex)
	if err != nil {
		return err
	}
	for _, q := range queries {
		logger.Debug("query classified",
			zap.String("query", q.Text),
			zap.String("mode", string(q.Mode)))
	}

	results := knowledge.RunClassified(index.Records(), queries, scope)

	logger.Debug("search complete",
		zap.Strings("queries", args),
		zap.String("field", string(scope)),
		zap.Int("results", len(results)))

	format := getFormat()
	if searchRaw {
		format = knowledge.FormatRaw
	}

	if knowledge.IsDetailView(queries, results) {
		output, err := knowledge.FormatDetail(results[0], format, renderOptions())
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	output, err := knowledge.FormatResults(results, format, renderOptions())
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(output)
	return nil
}
