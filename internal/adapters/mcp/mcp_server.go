// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

const (
	timeLayout = "2006-01-02T15:04:05"
	dateLayout = "2006-01-02"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Server implements the MCP server using mark3labs/mcp-go. It exposes
// the block state read-only; nothing here can lift a block.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.BlockStateProvider
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.BlockStateProvider, version string) *Server {
	s := &Server{
		stateProvider: stateProvider,
	}

	s.server = server.NewMCPServer(
		"focusgate",
		version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_block_status",
			mcp.WithDescription("Get the current focus block state: window, whether a block is in force, and the countdown"),
		),
		s.handleGetBlockStatus,
	)

	historyTool := mcp.NewTool(
		"get_block_history",
		mcp.WithDescription("List recent block events (started, ended, bypassed, bypass_failed), newest first"),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of events to return (default: 20)"),
		),
	)
	s.server.AddTool(historyTool, s.handleGetBlockHistory)

	statsTool := mcp.NewTool(
		"get_block_stats",
		mcp.WithDescription("Get block statistics for a day"),
		mcp.WithString(
			"date",
			mcp.Description("Day as YYYY-MM-DD (default: today)"),
		),
	)
	s.server.AddTool(statsTool, s.handleGetBlockStats)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleGetBlockStatus handles the get_block_status tool.
func (s *Server) handleGetBlockStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.stateProvider.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block status: %w", err)
	}

	result := map[string]any{
		"state":          string(st.State),
		"blocking":       st.IsBlocking(),
		"enabled":        st.Enabled,
		"window_from":    st.From.String(),
		"window_to":      st.To.String(),
		"in_window":      st.InWindow,
		"bypassed":       st.Bypassed,
		"has_bypass_pin": st.HasBypassPIN,
		"timestamp":      st.Timestamp.Format(timeLayout),
	}
	if st.Countdown != nil {
		result["countdown"] = map[string]any{
			"hours":    st.Countdown.Hours,
			"minutes":  st.Countdown.Minutes,
			"text":     st.Countdown.Text(),
			"end_time": st.Countdown.EndTime,
		}
		result["window_progress"] = st.WindowProgress()
		result["blocked_for"] = st.BlockedFor.String()
	}

	return jsonResult(result)
}

// handleGetBlockHistory handles the get_block_history tool.
func (s *Server) handleGetBlockHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)), nil
	}

	events, err := s.stateProvider.GetRecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get block history: %w", err)
	}

	list := make([]map[string]any, 0, len(events))
	for _, e := range events {
		item := map[string]any{
			"id":          e.ID,
			"kind":        string(e.Kind),
			"label":       e.Kind.Label(),
			"occurred_at": e.OccurredAt.Local().Format(timeLayout),
			"window":      e.From.String() + "–" + e.To.String(),
		}
		if e.BlockedFor > 0 {
			item["blocked_for"] = e.BlockedFor.String()
		}
		if e.GitBranch != "" {
			item["git_branch"] = e.GitBranch
		}
		list = append(list, item)
	}

	return jsonResult(map[string]any{
		"events":      list,
		"total_count": len(list),
	})
}

// handleGetBlockStats handles the get_block_stats tool.
func (s *Server) handleGetBlockStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := time.Now()
	if raw := request.GetString("date", ""); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return mcp.NewToolResultError("date must be YYYY-MM-DD: " + err.Error()), nil
		}
		date = parsed
	}

	stats, err := s.stateProvider.GetDailyStats(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get block stats: %w", err)
	}

	return jsonResult(statsJSON(stats))
}

func statsJSON(stats *domain.DailyStats) map[string]any {
	return map[string]any{
		"date":            stats.Date.Format(dateLayout),
		"blocks_started":  stats.BlocksStarted,
		"bypasses":        stats.Bypasses,
		"failed_bypasses": stats.FailedBypasses,
		"total_blocked":   stats.TotalBlocked.String(),
	}
}
