package mcp

import (
	"github.com/spf13/cobra"
)

// MCPCmd represents the mcp command
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server operations",
	Long:  "Serve the productivity tools to MCP clients over stdio or SSE",
}

func init() {
	MCPCmd.AddCommand(serveCmd)
}
