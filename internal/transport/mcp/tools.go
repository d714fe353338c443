package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/agentflow/internal/domain/apperr"
	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
)

// RegisterTools registers all MCP tools on the server. Every tool is
// read-only; writes go through the HTTP API.
func RegisterTools(s *mcpserver.MCPServer, agentSvc *agentsvc.Service, distSvc *distsvc.Service) {
	s.AddTool(mcpmcp.NewTool("list_agents",
		mcpmcp.WithDescription("List every agent on the roster, newest first."),
		mcpmcp.WithReadOnlyHintAnnotation(true),
	), listAgentsHandler(agentSvc))

	s.AddTool(mcpmcp.NewTool("list_distributions",
		mcpmcp.WithDescription("List distribution entries, newest upload first. Each entry holds the records one agent received from one upload."),
		mcpmcp.WithString("agent_id", mcpmcp.Description("Only entries for this agent UUID")),
		mcpmcp.WithReadOnlyHintAnnotation(true),
	), listDistributionsHandler(distSvc))

	s.AddTool(mcpmcp.NewTool("get_agent_records",
		mcpmcp.WithDescription("Return one agent and every record assigned to them across all uploads, newest upload first."),
		mcpmcp.WithString("agent_id", mcpmcp.Required(), mcpmcp.Description("Agent UUID")),
		mcpmcp.WithReadOnlyHintAnnotation(true),
	), getAgentRecordsHandler(agentSvc, distSvc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

func listAgentsHandler(agentSvc *agentsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		agents, err := agentSvc.List(ctx)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(map[string]any{"agents": agents})
	}
}

func listDistributionsHandler(distSvc *distsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		var filters domaindist.ListFilters
		if v := mcpmcp.ParseString(req, "agent_id", ""); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return mcpmcp.NewToolResultError("invalid agent_id"), nil
			}
			filters.AgentID = &id
		}

		entries, err := distSvc.List(ctx, filters)
		if err != nil {
			return errorResult(err), nil
		}
		if entries == nil {
			entries = []domaindist.Entry{}
		}
		return jsonResult(map[string]any{"distributions": entries})
	}
}

type assignedRecord struct {
	record.Record
	FileName   string    `json:"fileName"`
	UploadDate time.Time `json:"uploadDate"`
}

func getAgentRecordsHandler(agentSvc *agentsvc.Service, distSvc *distsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, err := uuid.Parse(mcpmcp.ParseString(req, "agent_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultError("invalid agent_id"), nil
		}

		a, err := agentSvc.GetByID(ctx, id)
		if err != nil {
			return errorResult(err), nil
		}
		entries, err := distSvc.List(ctx, domaindist.ListFilters{AgentID: &id})
		if err != nil {
			return errorResult(err), nil
		}

		records := []assignedRecord{}
		for _, e := range entries {
			for _, r := range e.Records {
				records = append(records, assignedRecord{Record: r, FileName: e.FileName, UploadDate: e.UploadDate})
			}
		}
		return jsonResult(map[string]any{"agent": a, "records": records})
	}
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}

// errorResult reports client-safe messages as-is and hides everything else.
func errorResult(err error) *mcpmcp.CallToolResult {
	if msg := apperr.PublicMessage(err); msg != "" {
		return mcpmcp.NewToolResultError(msg)
	}
	return mcpmcp.NewToolResultError("Internal server error")
}
