// Package mcp exposes the agent panel as Model Context Protocol tools so an assistant can read
// agents and recommendations and drive actions, rules and tasks.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// Backend is the part of the careagent API the tools call. *client.Client implements it.
type Backend interface {
	ListAgents(ctx context.Context, f client.AgentFilter) ([]models.Agent, error)
	TriggerAction(ctx context.Context, id, action string, data json.RawMessage) (*models.AgentTask, error)
	ListRecommendations(ctx context.Context, priority models.Priority) ([]models.Recommendation, error)
	AddRecommendation(ctx context.Context, r models.Recommendation) (*models.Recommendation, error)
	DismissRecommendation(ctx context.Context, id string) error
	ProcessRecommendations(ctx context.Context) ([]models.Recommendation, error)
	ListRules(ctx context.Context) ([]models.AutomationRule, error)
	ToggleRule(ctx context.Context, id string) (*models.AutomationRule, error)
	ExecuteRule(ctx context.Context, id string) (*models.AutomationRule, error)
	ListTasks(ctx context.Context, f client.TaskFilter) ([]models.AgentTask, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, result json.RawMessage) (*models.AgentTask, error)
}

var _ Backend = (*client.Client)(nil)

// Toolkit validates tool input before calling the backend. When AgentID is set, recommendations
// raised through the toolkit are attributed to that agent whatever the caller asks for.
type Toolkit struct {
	Backend Backend
	AgentID string
}

// ListAgents returns agents, optionally of one type and only active ones.
func (t *Toolkit) ListAgents(ctx context.Context, agentType string, activeOnly bool) ([]models.Agent, error) {
	f := client.AgentFilter{ActiveOnly: activeOnly}
	if agentType != "" {
		typ, err := models.ParseAgentType(agentType)
		if err != nil {
			return nil, err
		}
		f.Type = typ
	}
	return t.Backend.ListAgents(ctx, f)
}

// TriggerAction starts action on agentID. data, when non-empty, must be a JSON document.
func (t *Toolkit) TriggerAction(ctx context.Context, agentID, action, data string) (*models.AgentTask, error) {
	if agentID == "" {
		return nil, errors.New("agent_id required")
	}
	var raw json.RawMessage
	if data != "" {
		if !json.Valid([]byte(data)) {
			return nil, errors.New("data must be valid JSON")
		}
		raw = json.RawMessage(data)
	}
	return t.Backend.TriggerAction(ctx, agentID, action, raw)
}

func (t *Toolkit) ListRecommendations(ctx context.Context, priority string) ([]models.Recommendation, error) {
	var p models.Priority
	if priority != "" {
		parsed, err := models.ParsePriority(priority)
		if err != nil {
			return nil, err
		}
		p = parsed
	}
	return t.Backend.ListRecommendations(ctx, p)
}

// AddRecommendation raises a recommendation. Type defaults to alert and priority to medium.
func (t *Toolkit) AddRecommendation(ctx context.Context, r models.Recommendation) (*models.Recommendation, error) {
	if t.AgentID != "" {
		r.AgentID = t.AgentID
	}
	if r.AgentID == "" {
		return nil, errors.New("agent_id required")
	}
	if r.Type == "" {
		r.Type = models.RecommendationAlert
	}
	if r.Priority == "" {
		r.Priority = models.PriorityMedium
	}
	if !r.Type.Valid() {
		return nil, fmt.Errorf("invalid recommendation type %q", r.Type)
	}
	if !r.Priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q", r.Priority)
	}
	return t.Backend.AddRecommendation(ctx, r)
}

func (t *Toolkit) DismissRecommendation(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id required")
	}
	return t.Backend.DismissRecommendation(ctx, id)
}

func (t *Toolkit) ProcessRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	return t.Backend.ProcessRecommendations(ctx)
}

func (t *Toolkit) ListRules(ctx context.Context) ([]models.AutomationRule, error) {
	return t.Backend.ListRules(ctx)
}

func (t *Toolkit) ToggleRule(ctx context.Context, id string) (*models.AutomationRule, error) {
	return t.Backend.ToggleRule(ctx, id)
}

func (t *Toolkit) ExecuteRule(ctx context.Context, id string) (*models.AutomationRule, error) {
	return t.Backend.ExecuteRule(ctx, id)
}

// ListTasks returns tasks, at most models.DefaultMCPTaskLimit of them, newest last.
func (t *Toolkit) ListTasks(ctx context.Context, agentID, status string) ([]models.AgentTask, error) {
	f := client.TaskFilter{AgentID: agentID}
	if status != "" {
		s, err := models.ParseTaskStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = s
	}
	tasks, err := t.Backend.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(tasks) > models.DefaultMCPTaskLimit {
		tasks = tasks[len(tasks)-models.DefaultMCPTaskLimit:]
	}
	return tasks, nil
}

// CompleteTask marks a task completed or failed with an optional JSON result.
func (t *Toolkit) CompleteTask(ctx context.Context, id string, failed bool, result string) (*models.AgentTask, error) {
	status := models.TaskCompleted
	if failed {
		status = models.TaskFailed
	}
	var raw json.RawMessage
	if result != "" {
		if !json.Valid([]byte(result)) {
			return nil, errors.New("result must be valid JSON")
		}
		raw = json.RawMessage(result)
	}
	return t.Backend.UpdateTaskStatus(ctx, id, status, raw)
}
