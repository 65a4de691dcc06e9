package models

import "fmt"

// AgentType is the category of an agent.
type AgentType string

const (
	AgentClinical       AgentType = "clinical"
	AgentAdministrative AgentType = "administrative"
	AgentOperational    AgentType = "operational"
	AgentPredictive     AgentType = "predictive"
	AgentDiagnostic     AgentType = "diagnostic"
)

// AgentStatus is the lifecycle status of an agent.
type AgentStatus string

const (
	AgentActive     AgentStatus = "active"
	AgentIdle       AgentStatus = "idle"
	AgentProcessing AgentStatus = "processing"
	AgentOffline    AgentStatus = "offline"
)

// RecommendationType is the category of a recommendation.
type RecommendationType string

const (
	RecommendationAlert        RecommendationType = "alert"
	RecommendationSuggestion   RecommendationType = "suggestion"
	RecommendationAction       RecommendationType = "action"
	RecommendationOptimization RecommendationType = "optimization"
)

// Priority is shared by recommendations and tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// TaskStatus is the status of an agent task. Completed and failed are terminal.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Role is a hospital staff role; each role gets its own dashboard.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RoleReceptionist  Role = "receptionist"
	RoleDiagnostician Role = "diagnostician"
)

// Default limits and timings.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultSSEChannelBuffer    = 256
	DefaultActionDelayMS       = 2000
	DefaultAlertAgentID        = "clinical-decision"
	DefaultStorageKey          = "careagent-storage"
	DefaultPort                = 3650
	DefaultMCPTaskLimit        = 100
)

var (
	agentTypes          = []AgentType{AgentClinical, AgentAdministrative, AgentOperational, AgentPredictive, AgentDiagnostic}
	agentStatuses       = []AgentStatus{AgentActive, AgentIdle, AgentProcessing, AgentOffline}
	recommendationTypes = []RecommendationType{RecommendationAlert, RecommendationSuggestion, RecommendationAction, RecommendationOptimization}
	priorities          = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	taskStatuses        = []TaskStatus{TaskPending, TaskProcessing, TaskCompleted, TaskFailed}
	roles               = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleDiagnostician}
)

func (t AgentType) Valid() bool { return contains(agentTypes, t) }
func (s AgentStatus) Valid() bool { return contains(agentStatuses, s) }
func (t RecommendationType) Valid() bool { return contains(recommendationTypes, t) }
func (p Priority) Valid() bool { return contains(priorities, p) }
func (s TaskStatus) Valid() bool { return contains(taskStatuses, s) }
func (r Role) Valid() bool { return contains(roles, r) }

// Terminal reports whether the task status ends the task's lifecycle.
func (s TaskStatus) Terminal() bool { return s == TaskCompleted || s == TaskFailed }

// AgentTypes returns every agent type in display order.
func AgentTypes() []AgentType { return append([]AgentType(nil), agentTypes...) }

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority { return append([]Priority(nil), priorities...) }

// Roles returns every staff role.
func Roles() []Role { return append([]Role(nil), roles...) }

// ParseAgentType validates s as an AgentType.
func ParseAgentType(s string) (AgentType, error) { return parse[AgentType]("agent type", s) }

// ParseAgentStatus validates s as an AgentStatus.
func ParseAgentStatus(s string) (AgentStatus, error) { return parse[AgentStatus]("agent status", s) }

// ParseRecommendationType validates s as a RecommendationType.
func ParseRecommendationType(s string) (RecommendationType, error) {
	return parse[RecommendationType]("recommendation type", s)
}

// ParsePriority validates s as a Priority.
func ParsePriority(s string) (Priority, error) { return parse[Priority]("priority", s) }

// ParseTaskStatus validates s as a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) { return parse[TaskStatus]("task status", s) }

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) { return parse[Role]("role", s) }

type enum interface {
	~string
	Valid() bool
}

func parse[T enum](what, s string) (T, error) {
	v := T(s)
	if !v.Valid() {
		return v, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
