package version

// Name and Version identify the server to MCP clients and in startup banners.
const (
	Name    = "productivity-agent"
	Version = "0.1.0"
)
