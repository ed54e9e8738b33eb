package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/cli/testutil"
	"github.com/mark-chris/attackkb/internal/config"
)

// captureOutput captures stdout for testing
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-done
}

// resetCommandState resets command flags and global variables
func resetCommandState() {
	dataPath = ""
	configPath = ""
	outputFormat = ""
	verbose = false
	noColor = false

	searchField = ""
	searchRegex = false
	searchRaw = false
	searchLimit = 0
	listTactic = ""
	serveWatch = false
	configForce = false

	cfg = nil
	logger = nil
	loader = nil
	index = nil
}

// setupTestIndex loads the fixture exports into the shared index the way
// PersistentPreRunE does, with colors off
func setupTestIndex(t *testing.T) *testutil.TestFixture {
	t.Helper()

	fixture := testutil.SetupTestData(t)

	resetCommandState()
	cfg = config.DefaultConfig()
	cfg.Data = fixture.Dir
	cfg.Color = false
	logger = zap.NewNop()

	if err := loadIndex(context.Background()); err != nil {
		t.Fatalf("Failed to load fixture data: %v", err)
	}
	return fixture
}

// resetFlags restores every flag of cmd and its subcommands to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// setFlag sets a flag the way the command line would, marking it changed,
// and restores the command's flags when the test ends
func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	t.Cleanup(func() { resetFlags(cmd) })
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("Failed to set --%s: %v", name, err)
	}
}

// isolateEnv clears the ATTACKKB_* environment and points HOME, and with it
// the default config file, into a temporary directory
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ATTACKKB_DATA", "ATTACKKB_FORMAT", "ATTACKKB_FIELD", "ATTACKKB_LOG_LEVEL", "ATTACKKB_TOKEN_LIMIT"} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

// executeCommand runs the root command with args in an isolated environment
// and returns its stdout
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)
	return runCommand(t, args...)
}

// runCommand runs the root command with args and returns its stdout
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetCommandState()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	rootCmd.SetArgs(args)

	var err error
	output := captureOutput(func() {
		err = rootCmd.Execute()
	})
	return output, err
}
