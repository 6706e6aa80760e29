package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	store contract.Store
	now   func() time.Time
}

func (h *toolHandler) handleGetPullRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository := request.GetString("repository", "")
	number := request.GetInt("number", 0)
	if _, _, err := schema.SplitRepository(repository); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if number <= 0 {
		return mcp.NewToolResultError("invalid parameters: number must be a positive integer"), nil
	}

	record, err := h.store.GetPullRequest(ctx, repository, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(record)
}

func (h *toolHandler) handleGetReportData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository := request.GetString("repository", "")
	if _, _, err := schema.SplitRepository(repository); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	statType := schema.StatType(request.GetString("stat_type", string(schema.AllStats)))

	dr, err := contract.ResolveDateRange(
		request.GetString("lookback", ""),
		request.GetString("start_date", ""),
		request.GetString("end_date", ""),
		h.now(),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	data, err := core.CollectReportData(ctx, h.store, statType, repository, dr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	if data == nil {
		data = []schema.ChartData{}
	}
	return jsonResult(data)
}

func (h *toolHandler) handleGetStoreStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.store.GetStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(status)
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
