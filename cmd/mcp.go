package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/mssp-agent/pkg/logging"
	"github.com/user/mssp-agent/pkg/wrappers"
)

const mcpServerName = "mssp-agent"

// version is overridden at build time with -ldflags.
var version = "dev"

// newMCPServer exposes every check tool over MCP.
func newMCPServer(reg *wrappers.Registry, logger *zap.Logger) (*server.MCPServer, error) {
	s := server.NewMCPServer(mcpServerName, version, server.WithToolCapabilities(false))

	for _, t := range reg.All() {
		schema, err := json.Marshal(t.Schema())
		if err != nil {
			return nil, err
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema), mcpHandler(t, logger))
	}
	return s, nil
}

// mcpHandler returns the record JSON as text; error records become tool errors.
func mcpHandler(t wrappers.Tool, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		logger.Debug("tool call", zap.String("tool", t.Name()), zap.Any("args", args))

		rec := t.Collect(ctx, args)
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, err
		}
		if rec.Failed() {
			logger.Warn("check failed", zap.String("tool", t.Name()), zap.String("kind", string(rec.Kind())), zap.Error(rec.Err))
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the check tools over MCP stdio",
	Long: `Starts an MCP server on stdin/stdout exposing each check as a tool.
Logs go to stderr since stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewServerLogger(mcpServerName, logging.DebugEnabled())
		defer func() { _ = logger.Sync() }()

		s, err := newMCPServer(wrappers.NewRegistry(newEnv(), nil), logger)
		if err != nil {
			return err
		}

		stdio := server.NewStdioServer(s)
		stdio.SetErrorLogger(zap.NewStdLog(logger))

		logger.Info("serving", zap.String("version", version))
		return stdio.Listen(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
