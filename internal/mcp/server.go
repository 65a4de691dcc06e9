package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer returns an MCP server with one tool per Toolkit method.
func NewServer(t *Toolkit, version string) *server.MCPServer {
	s := server.NewMCPServer("careagent", version, server.WithToolCapabilities(false))
	RegisterTools(s, t)
	return s
}

// ServeStdio serves t over stdin/stdout until the client disconnects.
func ServeStdio(t *Toolkit, version string) error {
	return server.ServeStdio(NewServer(t, version))
}

// RegisterTools adds the agent panel tools to s.
func RegisterTools(s *server.MCPServer, t *Toolkit) {
	s.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List hospital AI agents with their status, confidence and last action."),
		mcp.WithString("type", mcp.Description("Only agents of this type"), mcp.Enum(enumOf(models.AgentTypes())...)),
		mcp.WithBoolean("active_only", mcp.Description("Only agents whose status is active")),
	), t.handleListAgents)

	s.AddTool(mcp.NewTool("trigger_agent_action",
		mcp.WithDescription("Start an action on an agent. The agent is processing for a short while and a task is recorded."),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent id, e.g. lab-analysis")),
		mcp.WithString("action", mcp.Description("Action name; defaults to manual_trigger")),
		mcp.WithString("data", mcp.Description("Optional JSON payload for the action")),
	), t.handleTriggerAction)

	s.AddTool(mcp.NewTool("list_recommendations",
		mcp.WithDescription("List agent recommendations, newest first."),
		mcp.WithString("priority", mcp.Description("Only this priority"), mcp.Enum(enumOf(models.Priorities())...)),
	), t.handleListRecommendations)

	s.AddTool(mcp.NewTool("add_recommendation",
		mcp.WithDescription("Raise a recommendation for the care team."),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("description"),
		mcp.WithString("agent_id", mcp.Description("Raising agent; ignored when the server is bound to an agent")),
		mcp.WithString("type", mcp.Enum("alert", "suggestion", "action", "optimization")),
		mcp.WithString("priority", mcp.Enum(enumOf(models.Priorities())...)),
		mcp.WithString("action", mcp.Description("Suggested follow-up for the care team")),
		mcp.WithNumber("confidence", mcp.Description("Between 0 and 1")),
	), t.handleAddRecommendation)

	s.AddTool(mcp.NewTool("dismiss_recommendation",
		mcp.WithDescription("Remove a recommendation by id."),
		mcp.WithString("id", mcp.Required()),
	), t.handleDismissRecommendation)

	s.AddTool(mcp.NewTool("process_critical_recommendations",
		mcp.WithDescription("Escalate critical recommendations from the alert agent to the care team."),
	), t.handleProcessRecommendations)

	s.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List automation rules with their schedule and execution count."),
	), t.handleListRules)

	s.AddTool(mcp.NewTool("execute_rule",
		mcp.WithDescription("Run an automation rule now."),
		mcp.WithString("id", mcp.Required()),
	), t.handleExecuteRule)

	s.AddTool(mcp.NewTool("toggle_rule",
		mcp.WithDescription("Enable or disable an automation rule."),
		mcp.WithString("id", mcp.Required()),
	), t.handleToggleRule)

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List agent tasks."),
		mcp.WithString("agent_id"),
		mcp.WithString("status", mcp.Enum("pending", "processing", "completed", "failed")),
	), t.handleListTasks)

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed, or failed, with an optional JSON result."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithBoolean("failed"),
		mcp.WithString("result"),
	), t.handleCompleteTask)
}

func enumOf[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// jsonResult renders v as indented JSON text, or the error as a tool error.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (t *Toolkit) handleListAgents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.ListAgents(ctx, req.GetString("type", ""), req.GetBool("active_only", false)))
}

func (t *Toolkit) handleTriggerAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("agent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.TriggerAction(ctx, id, req.GetString("action", "manual_trigger"), req.GetString("data", "")))
}

func (t *Toolkit) handleListRecommendations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.ListRecommendations(ctx, req.GetString("priority", "")))
}

func (t *Toolkit) handleAddRecommendation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r := models.Recommendation{
		AgentID:     req.GetString("agent_id", ""),
		Type:        models.RecommendationType(req.GetString("type", "")),
		Priority:    models.Priority(req.GetString("priority", "")),
		Title:       title,
		Description: req.GetString("description", ""),
		Action:      req.GetString("action", ""),
		Confidence:  req.GetFloat("confidence", 0),
	}
	return jsonResult(t.AddRecommendation(ctx, r))
}

func (t *Toolkit) handleDismissRecommendation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.DismissRecommendation(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("dismissed " + id), nil
}

func (t *Toolkit) handleProcessRecommendations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.ProcessRecommendations(ctx))
}

func (t *Toolkit) handleListRules(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.ListRules(ctx))
}

func (t *Toolkit) handleExecuteRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.ExecuteRule(ctx, id))
}

func (t *Toolkit) handleToggleRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.ToggleRule(ctx, id))
}

func (t *Toolkit) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.ListTasks(ctx, req.GetString("agent_id", ""), req.GetString("status", "")))
}

func (t *Toolkit) handleCompleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.CompleteTask(ctx, id, req.GetBool("failed", false), req.GetString("result", "")))
}
