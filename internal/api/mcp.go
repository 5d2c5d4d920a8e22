package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/emotrack/internal/stats"
	"github.com/kalambet/emotrack/internal/tracker"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Registry *tracker.Registry
	Journal  *tracker.Journal
}

// NewMCPServer creates an MCP server with all emotrack tools and resources registered.
func NewMCPServer(deps MCPDeps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"emotrack",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("emotrack keeps a private daily journal of emotional factors scored 1 (low) to 10 (high)."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_factors",
			mcp.WithDescription("List the emotional factors in display order, with their IDs and whether they are active."),
		),
		mcpListFactors(deps),
	)

	s.AddTool(
		mcp.NewTool("record_score",
			mcp.WithDescription("Record a 1-10 score for an active factor on a day. Values outside the range are clamped."),
			mcp.WithString("factor", mcp.Description("Factor ID or name"), mcp.Required()),
			mcp.WithNumber("score", mcp.Description("Score from 1 to 10"), mcp.Required()),
			mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
		),
		mcpRecordScore(deps),
	)

	s.AddTool(
		mcp.NewTool("record_notes",
			mcp.WithDescription("Replace the free-text notes of a day."),
			mcp.WithString("notes", mcp.Description("Notes text"), mcp.Required()),
			mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
		),
		mcpRecordNotes(deps),
	)

	s.AddTool(
		mcp.NewTool("factor_statistics",
			mcp.WithDescription("7- and 30-day averages, all-time extremes and the 30-day trend of one active factor."),
			mcp.WithString("factor", mcp.Description("Factor ID or name"), mcp.Required()),
		),
		mcpFactorStatistics(deps),
	)

	s.AddTool(
		mcp.NewTool("overall_summary",
			mcp.WithDescription("Overall and windowed averages plus per-factor statistics for every active factor."),
		),
		mcpOverallSummary(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"tracker://today",
			"Today's Record",
			mcp.WithResourceDescription("Today's daily record as JSON, created empty if missing"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceToday(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"tracker://factors",
			"Emotional Factors",
			mcp.WithResourceDescription("All factors in display order"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFactors(deps),
	)

	return s
}

func (d MCPDeps) appDeps() AppDeps {
	return AppDeps{Registry: d.Registry, Journal: d.Journal}
}

func mcpListFactors(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		factors, err := deps.Registry.ListAll()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list factors: %v", err)), nil
		}
		return mcpJSON(factors)
	}
}

func mcpRecordScore(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("factor")
		if err != nil {
			return mcpError("factor is required"), nil
		}
		score, err := req.RequireInt("score")
		if err != nil {
			return mcpError("score is required"), nil
		}
		day, err := parseDay(deps.Journal.Calendar(), req.GetString("date", "today"))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid date: %v", err)), nil
		}

		f, err := deps.Registry.Resolve(ref)
		if err != nil {
			return mcpError(fmt.Sprintf("unknown factor %q: %v", ref, err)), nil
		}
		if !f.Active {
			return mcpError(fmt.Sprintf("factor %q is inactive", f.Name)), nil
		}

		rec, err := deps.Journal.SetScore(day, f.ID, score)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save score: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Recorded %s = %d on %s", f.Name, rec.Scores[f.ID], rec.DayKey())), nil
	}
}

func mcpRecordNotes(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		notes, err := req.RequireString("notes")
		if err != nil {
			return mcpError("notes is required"), nil
		}
		day, err := parseDay(deps.Journal.Calendar(), req.GetString("date", "today"))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid date: %v", err)), nil
		}

		rec, err := deps.Journal.SetNotes(day, strings.TrimSpace(notes))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save notes: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Saved notes for %s", rec.DayKey())), nil
	}
}

func mcpFactorStatistics(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("factor")
		if err != nil {
			return mcpError("factor is required"), nil
		}
		f, err := deps.Registry.Resolve(ref)
		if err != nil {
			return mcpError(fmt.Sprintf("unknown factor %q: %v", ref, err)), nil
		}

		snap, err := stats.Load(deps.Journal, deps.Registry, deps.Journal.Calendar())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load statistics: %v", err)), nil
		}
		fs, ok := snap.Factor(f.ID)
		if !ok {
			return mcpError(fmt.Sprintf("factor %q is inactive", f.Name)), nil
		}
		return mcpJSON(fs)
	}
}

func mcpOverallSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := stats.Load(deps.Journal, deps.Registry, deps.Journal.Calendar())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load statistics: %v", err)), nil
		}
		return mcpJSON(snap.Summary())
	}
}

func mcpResourceToday(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, err := deps.Journal.GetOrCreateToday()
		if err != nil {
			return nil, fmt.Errorf("failed to load today: %w", err)
		}
		view, err := dayView(deps.appDeps(), *rec)
		if err != nil {
			return nil, fmt.Errorf("failed to list factors: %w", err)
		}
		return jsonResource(req.Params.URI, view)
	}
}

func mcpResourceFactors(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		factors, err := deps.Registry.ListAll()
		if err != nil {
			return nil, fmt.Errorf("failed to list factors: %w", err)
		}
		return jsonResource(req.Params.URI, factors)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
