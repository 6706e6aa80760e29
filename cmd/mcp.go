package cmd

import (
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the sizeup MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents read stored pull requests,
report datasets and store status. The server never writes to the store.`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := mcp.StartMCPServer(rootCtx, store, version); err != nil {
			contract.LogFatal("MCP server failed", err)
		}
	},
}
