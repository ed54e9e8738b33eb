package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/mcp"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdin/stdout.

The server exposes the attackkb_search tool to MCP-compatible AI coding
assistants. Logs go to stderr; stdout carries only protocol messages.

Examples:
  # Serve the default data
  attackkb serve

  # Reload the index when the exports change
  attackkb serve --data ./attack --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false,
		"Rebuild the index when the data files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := mcp.NewServer(index,
		mcp.WithLogger(logger),
		mcp.WithTokenLimit(cfg.TokenLimit),
		mcp.WithVersion(Version))

	if serveWatch {
		dw, err := newDataWatcher(loader.BasePath(), logger)
		if err != nil {
			return err
		}
		defer dw.Close()

		go dw.run(ctx, reloadIndex)
		logger.Info("watching data for changes", zap.String("path", loader.BasePath()))
	}

	logger.Info("starting MCP server",
		zap.Int("techniques", index.Count()),
		zap.String("version", Version))

	if err := srv.ServeStdio(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}

	logger.Info("MCP server stopped")
	return nil
}

// reloadIndex rebuilds the shared index in place. A failed load keeps the
// previous index.
func reloadIndex(ctx context.Context) {
	records, err := loader.LoadAll(ctx)
	if err != nil {
		logger.Warn("reload failed, keeping previous index", zap.Error(err))
		return
	}

	index.Build(records)
	logger.Info("index reloaded", zap.Int("records", index.Count()))
}
