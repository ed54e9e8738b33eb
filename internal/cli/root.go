package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/config"
	"github.com/mark-chris/attackkb/internal/knowledge"
)

var (
	// Global flags
	dataPath     string
	configPath   string
	outputFormat string
	verbose      bool
	noColor      bool

	// Shared resources
	cfg    *config.Config
	logger *zap.Logger
	loader *knowledge.Loader
	index  *knowledge.Index
)

// indexFreeCommands run without loading technique data
var indexFreeCommands = map[string]bool{
	"help":                    true,
	"version":                 true,
	"controls":                true,
	"stig":                    true,
	"config":                  true,
	"show":                    true,
	"init":                    true,
	"completion":              true,
	cobra.ShellCompRequestCmd: true,
}

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "attackkb",
	Short: "ATT&CK technique knowledge base CLI",
	Long: `attackkb - look up and search MITRE ATT&CK techniques.

Loads technique exports (STIX bundles, technique lists, YAML or spreadsheet
exports) and answers exact ID lookups and free-text searches, for humans
on the terminal and for AI agents over MCP.

Examples:
  # Look up a technique by ID
  attackkb search T1059.001

  # Search technique names with a regular expression
  attackkb search --field name --regex '^process'

  # Show one technique
  attackkb get T1055

  # Start MCP server
  attackkb serve --watch`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		if err := initLogger(); err != nil {
			return err
		}

		// Skip data loading for commands that don't query techniques
		if indexFreeCommands[cmd.Name()] {
			return nil
		}

		return loadIndex(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "",
		"Path to a technique export file or directory of exports")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default $HOME/.attackkb/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "",
		"Output format: table, json, text or raw")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tacticsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(controlsCmd)
	rootCmd.AddCommand(stigCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads the config file and applies explicitly set flags over it
func initConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data = dataPath
	}
	if flags.Changed("format") {
		cfg.Format = outputFormat
	}
	if noColor {
		cfg.Color = false
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// initLogger builds the process logger. Logs go to stderr so stdout stays
// reserved for command output and MCP messages.
func initLogger() error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadIndex loads the configured exports and builds the shared index
func loadIndex(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	path := cfg.Data
	if path == "" {
		path = findDataPath()
	}
	if path == "" {
		return fmt.Errorf("no technique data found: pass --data, set ATTACKKB_DATA, or set data in %s", config.DefaultPath())
	}

	loader = knowledge.NewLoader(path, logger)
	records, err := loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load techniques: %w", err)
	}

	index = knowledge.NewIndex()
	index.Build(records)

	logger.Debug("index built",
		zap.String("path", path),
		zap.Int("records", index.Count()))
	return nil
}

// findDataPath locates technique exports in common locations
func findDataPath() string {
	home, _ := os.UserHomeDir()

	candidates := []string{
		"enterprise-attack.json",
		"data",
		filepath.Join(home, ".attackkb", "data"),
		"/usr/local/share/attackkb",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// getFormat returns the configured output format
func getFormat() knowledge.OutputFormat {
	format, err := knowledge.ParseOutputFormat(cfg.Format)
	if err != nil {
		return knowledge.FormatTable
	}
	return format
}

// renderOptions returns rendering options from the configuration
func renderOptions() knowledge.RenderOptions {
	return knowledge.RenderOptions{Color: cfg.Color}
}
