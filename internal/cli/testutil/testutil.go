package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestFixture holds test resources and provides cleanup
type TestFixture struct {
	Dir        string      // Temporary directory containing the exports
	BundlePath string      // STIX bundle written into Dir
	Techniques []Technique // Every technique written, bundle first
	Cleanup    func()      // Cleanup function to remove temporary resources
}

// Technique is the minimal description of a technique fixture
type Technique struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tactics     []string `yaml:"tactics,omitempty"`
}

// SetupTestData creates a temporary directory with a three-technique STIX
// bundle (enterprise-attack.json) and a one-technique YAML list (mobile.yaml)
func SetupTestData(t testing.TB) *TestFixture {
	t.Helper()

	tmpDir := t.TempDir()

	enterprise := []Technique{
		{
			ID:          "T1059.001",
			Name:        "PowerShell",
			Description: "Adversaries may abuse PowerShell commands and scripts for execution.",
			Tactics:     []string{"execution"},
		},
		{
			ID:          "T1055",
			Name:        "Process Injection",
			Description: "Adversaries may inject code into processes in order to evade process-based defenses.",
			Tactics:     []string{"defense-evasion", "privilege-escalation"},
		},
		{
			ID:          "T1003",
			Name:        "OS Credential Dumping",
			Description: "Adversaries may attempt to dump credentials to obtain account login material.",
			Tactics:     []string{"credential-access"},
		},
	}
	mobile := []Technique{
		{
			ID:          "T1407",
			Name:        "Download New Code at Runtime",
			Description: "Adversaries may download and execute dynamic code not included in the original application package.",
			Tactics:     []string{"defense-evasion"},
		},
	}

	bundlePath, err := WriteBundle(tmpDir, "enterprise-attack.json", enterprise)
	if err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	if _, err := WriteYAMLList(tmpDir, "mobile.yaml", mobile); err != nil {
		t.Fatalf("Failed to write YAML list: %v", err)
	}

	return &TestFixture{
		Dir:        tmpDir,
		BundlePath: bundlePath,
		Techniques: append(enterprise, mobile...),
		Cleanup:    func() {}, // t.TempDir() handles cleanup automatically
	}
}

// StixObject renders a technique the way ATT&CK STIX bundles carry it
func StixObject(tech Technique) map[string]interface{} {
	phases := make([]map[string]string, 0, len(tech.Tactics))
	for _, tactic := range tech.Tactics {
		phases = append(phases, map[string]string{
			"kill_chain_name": "mitre-attack",
			"phase_name":      tactic,
		})
	}

	return map[string]interface{}{
		"type":              "attack-pattern",
		"name":              tech.Name,
		"description":       tech.Description,
		"kill_chain_phases": phases,
		"external_references": []map[string]string{
			{"source_name": "mitre-attack", "external_id": tech.ID},
		},
	}
}

// WriteBundle writes techniques as a STIX bundle and returns the file path
func WriteBundle(dir, name string, techniques []Technique) (string, error) {
	objects := make([]map[string]interface{}, 0, len(techniques))
	for _, tech := range techniques {
		objects = append(objects, StixObject(tech))
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"type":    "bundle",
		"objects": objects,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return writeFile(dir, name, data)
}

// WriteYAMLList writes techniques as a YAML techniques list and returns the
// file path
func WriteYAMLList(dir, name string, techniques []Technique) (string, error) {
	data, err := yaml.Marshal(map[string]interface{}{"techniques": techniques})
	if err != nil {
		return "", err
	}

	return writeFile(dir, name, data)
}

func writeFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	// #nosec G306 -- Test files don't need restrictive permissions
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
