package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/adapters/driving/mcp"
	"github.com/custodia-labs/labinv/internal/logger"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose inventory search to AI assistants",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the Model Context Protocol so an assistant can search the inventory,
list saved searches and baskets, and compare records.

Without --port the server speaks JSON-RPC on stdio, which is what desktop
assistants launch. With --port it serves the streamable HTTP transport.

Examples:
  labinv mcp serve
  labinv mcp serve --port 8080 --host 127.0.0.1

Assistant configuration:
  {
    "mcpServers": {
      "labinv": {"command": "/path/to/labinv", "args": ["mcp", "serve"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 serves on stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP interface to bind")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}
	if err := requireServer(recordService); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		NewSearch: newSearch,
		Codec:     queryCodec,
		Records:   recordService,
	})
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	logger.Debug("mcp: http transport on %s", addr)
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
