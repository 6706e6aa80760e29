// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"time"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the read-only sizeup MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(store contract.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Sizeup Report Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		store: store,
		now:   time.Now,
	}

	// --- 1. Tool: get_pull_request ---
	s.AddTool(mcp.NewTool("get_pull_request",
		mcp.WithDescription("Return the stored review metrics of one pull request."),
		mcp.WithString("repository", mcp.Description("Repository in owner/name form."), mcp.Required()),
		mcp.WithNumber("number", mcp.Description("Pull request number."), mcp.Required()),
	), h.handleGetPullRequest)

	// --- 2. Tool: get_report_data ---
	s.AddTool(mcp.NewTool("get_report_data",
		mcp.WithDescription("Return the chart datasets of a report for a repository and reporting window."),
		mcp.WithString("repository", mcp.Description("Repository in owner/name form."), mcp.Required()),
		mcp.WithString("stat_type", mcp.Description("Report family. Defaults to 'all'."),
			mcp.Enum("review-engagement", "delivery", "effectiveness", "all")),
		mcp.WithString("lookback", mcp.Description("Window ending now, such as '30d', '2w' or '3mo'.")),
		mcp.WithString("start_date", mcp.Description("Window start in YYYY-MM-DD form.")),
		mcp.WithString("end_date", mcp.Description("Window end in YYYY-MM-DD form. Requires start_date.")),
	), h.handleGetReportData)

	// --- 3. Tool: get_store_status ---
	s.AddTool(mcp.NewTool("get_store_status",
		mcp.WithDescription("Return row counts and the evaluation time span of the persistent store."),
	), h.handleGetStoreStatus)

	return s
}

// StartMCPServer serves the sizeup tools over stdio.
func StartMCPServer(_ context.Context, store contract.Store, version string) error {
	s := NewMCPServer(store, version)
	return server.ServeStdio(s)
}
