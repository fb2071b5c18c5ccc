package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"productivity-agent/internal/version"
	"productivity-agent/pkg/logger"
	"productivity-agent/pkg/tools"
)

// serveCmd starts the MCP server exposing the productivity tools.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP tool server with stdio or SSE transport",
	Long: `Start the MCP server that exposes the productivity tools
(task_store, date_calculator, workflow_optimizer, prioritize_tasks) to
agent clients.

Examples:
  productivity-agent mcp serve                         # stdio transport
  productivity-agent mcp serve --transport sse         # SSE on default port
  productivity-agent mcp serve --transport sse --port 9090`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or sse)")
	serveCmd.Flags().Int("port", 9090, "Port for SSE transport")

	viper.BindPFlag("mcp.transport", serveCmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) {
	// stdout carries the protocol on stdio transport, so the log never
	// mirrors there.
	log, err := logger.New(viper.GetString("log-file"), viper.GetString("log-level"),
		viper.GetString("log-format"), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	toolset, closer, err := tools.Build(tools.Config{
		Backend:           viper.GetString("storage"),
		DataDir:           viper.GetString("data-dir"),
		TasksFile:         viper.GetString("tasks-file"),
		HistoryFile:       viper.GetString("history-file"),
		MinHistoryEntries: viper.GetInt("min-history-entries"),
	})
	if err != nil {
		log.Errorf("Failed to build tool set: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to build tool set: %v\n", err)
		os.Exit(1)
	}
	defer closer()

	s := server.NewMCPServer(
		version.Name,
		version.Version,
		server.WithToolCapabilities(true),
	)

	for _, t := range toolset.Registry.All() {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			log.Fatalf("Failed to encode schema for %s: %v", t.Name, err)
		}
		run := t.Run
		name := t.Name
		s.AddTool(
			mcp.NewToolWithRawSchema(t.Name, t.Description, schema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				raw, err := json.Marshal(req.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("failed to read arguments: %v", err)), nil
				}
				log.WithField("tool", name).Debug("tool call")
				return mcp.NewToolResultText(string(run(ctx, raw))), nil
			},
		)
	}

	transport := viper.GetString("mcp.transport")
	port := viper.GetInt("mcp.port")

	switch transport {
	case "stdio":
		log.Infof("Starting MCP server (%s %s) on stdio", version.Name, version.Version)
		if err := server.ServeStdio(s); err != nil {
			log.Errorf("Server error: %v", err)
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case "sse":
		addr := fmt.Sprintf(":%d", port)
		log.Infof("Starting MCP server (%s %s) with SSE transport on %s", version.Name, version.Version, addr)
		fmt.Fprintf(os.Stderr, "SSE server listening on %s\n", addr)
		if err := server.NewSSEServer(s).Start(addr); err != nil {
			log.Errorf("Server error: %v", err)
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Invalid transport type: %s. Use 'stdio' or 'sse'\n", transport)
		os.Exit(1)
	}
}
