// Package stig summarizes XCCDF-style STIG scan reports.
package stig

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Finding is a rule that did not pass
type Finding struct {
	Rule   string `json:"rule"`
	Result string `json:"result"`
}

// Report is the outcome of scanning one report
type Report struct {
	// Checked counts every rule-result element seen
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// ruleResult mirrors a rule-result element. Namespaces are ignored.
type ruleResult struct {
	IDRef  string `xml:"idref,attr"`
	Result string `xml:"result"`
	Rule   *struct {
		ID string `xml:"id,attr"`
	} `xml:"rule"`
}

// ParseFile parses the report at path
func ParseFile(path string) (Report, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the user's argument
	if err != nil {
		return Report{}, fmt.Errorf("failed to open STIG report: %w", err)
	}
	defer f.Close()

	report, err := Parse(f)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return report, nil
}

// Parse streams r and collects every rule-result, at any depth, whose
// result is not "pass"
func Parse(r io.Reader) (Report, error) {
	report := Report{Findings: make([]Finding, 0)}
	dec := xml.NewDecoder(r)

	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Report{}, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "rule-result" {
			continue
		}

		var rr ruleResult
		if err := dec.DecodeElement(&rr, &start); err != nil {
			return Report{}, err
		}
		report.Checked++

		result := strings.TrimSpace(rr.Result)
		if result == "pass" {
			continue
		}

		rule := strings.TrimSpace(rr.IDRef)
		if rr.Rule != nil && strings.TrimSpace(rr.Rule.ID) != "" {
			rule = strings.TrimSpace(rr.Rule.ID)
		}
		report.Findings = append(report.Findings, Finding{Rule: rule, Result: result})
	}

	if !sawRoot {
		return Report{}, errors.New("report contains no XML elements")
	}
	return report, nil
}

// Format renders the findings count followed by one "rule: result" line
// per finding
func Format(report Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total findings: %d\n", len(report.Findings))
	for _, f := range report.Findings {
		fmt.Fprintf(&sb, "%s: %s\n", f.Rule, f.Result)
	}
	return sb.String()
}
