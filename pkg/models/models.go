// Package models provides shared types for the careagent HTTP API, the agent store and external tools.
// The JSON shape of Snapshot is the persisted format and must stay stable.
package models

import (
	"encoding/json"
	"time"
)

// Agent is a simulated automation unit with a capability list and a lifecycle status.
type Agent struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           AgentType   `json:"type"`
	Status         AgentStatus `json:"status"`
	Description    string      `json:"description,omitempty"`
	Capabilities   []string    `json:"capabilities"`
	LastAction     *string     `json:"lastAction,omitempty"`
	LastActionTime *time.Time  `json:"lastActionTime,omitempty"`
	Confidence     *float64    `json:"confidence,omitempty"`
}

// Recommendation is an alert or suggestion attributed to an agent. AgentID is a weak reference.
type Recommendation struct {
	ID          string             `json:"id"`
	AgentID     string             `json:"agentId"`
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Action      string             `json:"action,omitempty"`
	Confidence  float64            `json:"confidence"`
	Timestamp   time.Time          `json:"timestamp"`
}

// AutomationRule is a declarative trigger/conditions/actions description.
// Executing a rule only bumps ExecutionCount and stamps LastTriggered.
type AutomationRule struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Trigger        string     `json:"trigger"`
	Conditions     []string   `json:"conditions"`
	Actions        []string   `json:"actions"`
	Enabled        bool       `json:"enabled"`
	ExecutionCount int        `json:"executionCount"`
	LastTriggered  *time.Time `json:"lastTriggered,omitempty"`
	Schedule       string     `json:"schedule,omitempty"` // cron expression; empty means manual only
}

// AgentTask is a unit of simulated work created when an agent action is triggered.
type AgentTask struct {
	ID          string          `json:"id"`
	AgentID     string          `json:"agentId"`
	Type        string          `json:"type"`
	Status      TaskStatus      `json:"status"`
	Priority    Priority        `json:"priority"`
	Data        json.RawMessage `json:"data,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Snapshot is the full persisted state of the agent store.
type Snapshot struct {
	Agents          []Agent          `json:"agents"`
	Recommendations []Recommendation `json:"recommendations"`
	AutomationRules []AutomationRule `json:"automationRules"`
	Tasks           []AgentTask      `json:"tasks"`
}

// Staff is the signed-in hospital user as reported by the identity provider.
type Staff struct {
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

// Dashboard is the /dashboard API response: the agent panel filtered for one role.
type Dashboard struct {
	Role            Role             `json:"role"`
	Agents          []Agent          `json:"agents"`
	Recommendations []Recommendation `json:"recommendations"`
	CriticalCount   int              `json:"critical_count"`
	ActiveAgents    int              `json:"active_agents"`
	EnabledRules    int              `json:"enabled_rules"`
	OpenTasks       int              `json:"open_tasks"`
}

// Config is the /config API response.
type Config struct {
	Home          string `json:"home,omitempty"`
	DBDriver      string `json:"db_driver,omitempty"`
	ActionDelayMS int64  `json:"action_delay_ms"`
	AlertAgentID  string `json:"alert_agent_id,omitempty"`
	BootstrapID   string `json:"bootstrap_id,omitempty"`
}
