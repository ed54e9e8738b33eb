package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// OutputFormat specifies the output format
type OutputFormat string

// Output format constants.
const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatText  OutputFormat = "text"
	FormatRaw   OutputFormat = "raw"
)

// OutputFormats lists the accepted formats
var OutputFormats = []OutputFormat{FormatTable, FormatJSON, FormatText, FormatRaw}

// ParseOutputFormat converts a user-supplied format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q: must be table, json, text, or raw", s)
}

// RenderOptions control terminal presentation
type RenderOptions struct {
	Color bool
}

// SearchOutput is the JSON document emitted for a search
type SearchOutput struct {
	Count   int            `json:"count"`
	Results []ResultRecord `json:"results"`
}

// DetailOutput is the JSON document emitted for a single technique
type DetailOutput struct {
	ResultRecord
	Raw *Object `json:"raw,omitempty"`
}

// FormatResults formats search results for display
func FormatResults(results []ResultRecord, format OutputFormat, opts RenderOptions) (string, error) {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []ResultRecord{}
		}
		return formatJSON(SearchOutput{Count: len(results), Results: results})
	case FormatRaw:
		raw := make([]*Object, 0, len(results))
		for _, r := range results {
			raw = append(raw, r.Raw)
		}
		return formatJSON(raw)
	case FormatText:
		return formatText(results), nil
	default:
		return formatTable(results, opts), nil
	}
}

func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatText(results []ResultRecord) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Found %d technique(s)\n", len(results)))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, displayID(r.ID)))
		if r.Name != "" {
			sb.WriteString(fmt.Sprintf(": %s", r.Name))
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		if len(r.Tactics) > 0 {
			sb.WriteString(fmt.Sprintf("TACTICS: %s\n", strings.Join(r.Tactics, ", ")))
		}
		if r.Description != "" {
			sb.WriteString(fmt.Sprintf("%s\n", firstLine(r.Description)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatTable(results []ResultRecord, opts RenderOptions) string {
	if len(results) == 0 {
		return "No matching techniques"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	idStyle := cellStyle
	border := lipgloss.NewStyle()
	if opts.Color {
		headerStyle = headerStyle.Foreground(lipgloss.Color("12"))
		idStyle = idStyle.Foreground(lipgloss.Color("10"))
		border = border.Foreground(lipgloss.Color("8"))
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{displayID(r.ID), r.Name, strings.Join(r.Tactics, ", ")})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		Headers("ID", "NAME", "TACTICS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		})

	return fmt.Sprintf("%s\n%d technique(s)", t.String(), len(results))
}

// FormatDetail formats a single technique for detailed display
func FormatDetail(r ResultRecord, format OutputFormat, opts RenderOptions) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(DetailOutput{ResultRecord: r, Raw: r.Raw})
	case FormatRaw:
		return formatJSON(r.Raw)
	default:
		return formatDetailText(r, opts), nil
	}
}

func formatDetailText(r ResultRecord, opts RenderOptions) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s: %s", displayID(r.ID), r.Name)
	if opts.Color {
		title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render(title)
	}
	sb.WriteString(title + "\n")
	if len(r.Tactics) > 0 {
		sb.WriteString(fmt.Sprintf("Tactics: %s\n", strings.Join(r.Tactics, ", ")))
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	if r.Description != "" {
		sb.WriteString(renderMarkdown(r.Description, opts))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderMarkdown renders a description with glamour, falling back to the
// plain text when rendering fails
func renderMarkdown(text string, opts RenderOptions) string {
	style := styles.AsciiStyle
	if opts.Color {
		style = styles.DarkStyle
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}

	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func displayID(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
