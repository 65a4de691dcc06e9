// Package agentstore holds the agents, recommendations, automation rules and tasks behind the
// AI agents panel, and simulates agent actions with a timed processing -> active transition.
package agentstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/google/uuid"
)

// Notifier receives critical recommendations from ProcessAgentRecommendations.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// EventType names a state change published to OnChange listeners.
type EventType string

const (
	EventAgentUpdate            EventType = "agent_update"
	EventRecommendationAdded    EventType = "recommendation_added"
	EventRecommendationDismiss  EventType = "recommendation_dismissed"
	EventRuleAdded              EventType = "rule_added"
	EventRuleUpdate             EventType = "rule_update"
	EventTaskAdded              EventType = "task_added"
	EventTaskUpdate             EventType = "task_update"
	EventRecommendationsProcess EventType = "recommendations_processed"
)

// Event is emitted after a mutation is applied and persisted.
type Event struct {
	Type EventType `json:"type"`
	ID   string    `json:"id,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithActionDelay sets how long TriggerAgentAction keeps an agent in processing.
func WithActionDelay(d time.Duration) Option { return func(s *Store) { s.delay = d } }

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithAlertAgentID sets the agent whose critical recommendations ProcessAgentRecommendations handles.
func WithAlertAgentID(id string) Option { return func(s *Store) { s.alertAgentID = id } }

// WithNotifier sets where processed critical recommendations are sent.
func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

// WithCatalog sets the catalog used to seed an empty store.
func WithCatalog(c Catalog) Option { return func(s *Store) { s.catalog = c } }

// WithOnChange registers a listener called after every mutation, outside the store lock.
func WithOnChange(fn func(Event)) Option { return func(s *Store) { s.onChange = fn } }

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// Store owns the agent panel state. It is safe for concurrent use.
// Lookups over unknown ids are no-ops: mutators report false and change nothing.
type Store struct {
	mu    sync.Mutex
	state models.Snapshot

	persister    Persister
	catalog      Catalog
	delay        time.Duration
	now          func() time.Time
	alertAgentID string
	notifier     Notifier
	onChange     func(Event)
	log          *slog.Logger

	// pending revert timers by agent id; gen identifies the newest trigger
	timers   map[string]*revertTimer
	timerGen uint64
	closed   bool
}

type revertTimer struct {
	t   *time.Timer
	gen uint64
}

// New loads state from p, seeding it from the catalog when nothing is persisted yet.
// A nil persister keeps state in memory only.
func New(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister:    p,
		catalog:      DefaultCatalog(),
		delay:        models.DefaultActionDelayMS * time.Millisecond,
		now:          func() time.Time { return time.Now().UTC() },
		alertAgentID: models.DefaultAlertAgentID,
		timers:       make(map[string]*revertTimer),
	}
	for _, o := range opts {
		o(s)
	}
	if s.persister == nil {
		s.persister = NewMemoryPersister()
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	snap, err := s.persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load agent store: %w", err)
	}
	if snap == nil {
		s.state = models.Snapshot{
			Agents:          s.catalog.agents(),
			Recommendations: []models.Recommendation{},
			AutomationRules: s.catalog.rules(),
			Tasks:           []models.AgentTask{},
		}
		if err := s.persister.Save(ctx, cloneSnapshot(s.state)); err != nil {
			return nil, fmt.Errorf("seed agent store: %w", err)
		}
		s.log.Info("agent store seeded", "agents", len(s.state.Agents), "rules", len(s.state.AutomationRules))
		return s, nil
	}
	s.state = cloneSnapshot(*snap)
	return s, nil
}

// Close cancels pending action timers. The store stays readable and writable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, rt := range s.timers {
		rt.t.Stop()
		delete(s.timers, id)
	}
	return nil
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.state)
}

// --- Agents ---

// Agents returns every agent in catalog order.
func (s *Store) Agents() []models.Agent {
	return s.filterAgents(func(models.Agent) bool { return true })
}

// Agent returns the agent with id, if present.
func (s *Store) Agent(id string) (models.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.agentIndex(id); i >= 0 {
		return cloneAgent(s.state.Agents[i]), true
	}
	return models.Agent{}, false
}

// ActiveAgents returns the agents whose status is active.
func (s *Store) ActiveAgents() []models.Agent {
	return s.filterAgents(func(a models.Agent) bool { return a.Status == models.AgentActive })
}

// AgentsByType returns the agents of type t.
func (s *Store) AgentsByType(t models.AgentType) []models.Agent {
	return s.filterAgents(func(a models.Agent) bool { return a.Type == t })
}

func (s *Store) filterAgents(keep func(models.Agent) bool) []models.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Agent{}
	for _, a := range s.state.Agents {
		if keep(a) {
			out = append(out, cloneAgent(a))
		}
	}
	return out
}

// UpdateAgentStatus sets the status of agent id. Other agents are untouched.
func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status models.AgentStatus) bool {
	s.mu.Lock()
	i := s.agentIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Agents[i].Status = status
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventAgentUpdate, ID: id})
	return true
}

// TriggerAgentAction puts the agent into processing, records the action, and creates a
// processing task. After the action delay the agent is set back to active whatever its status
// is at that point; the task is left as is. Triggering the same agent again replaces the
// pending revert.
func (s *Store) TriggerAgentAction(ctx context.Context, agentID, action string, data json.RawMessage) models.AgentTask {
	s.mu.Lock()
	now := s.now()
	var events []Event
	if i := s.agentIndex(agentID); i >= 0 {
		a := &s.state.Agents[i]
		a.Status = models.AgentProcessing
		act := action
		a.LastAction = &act
		at := now
		a.LastActionTime = &at
		events = append(events, Event{Type: EventAgentUpdate, ID: agentID})
	}
	task := models.AgentTask{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Type:      action,
		Status:    models.TaskProcessing,
		Priority:  models.PriorityMedium,
		Data:      compactRaw(data),
		CreatedAt: now,
	}
	s.state.Tasks = append(s.state.Tasks, task)
	s.persistLocked(ctx)
	s.scheduleRevertLocked(agentID)
	s.mu.Unlock()

	events = append(events, Event{Type: EventTaskAdded, ID: task.ID})
	s.emit(events...)
	return cloneTask(task)
}

// PendingActions returns how many agents have a revert scheduled.
func (s *Store) PendingActions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Store) scheduleRevertLocked(agentID string) {
	if s.closed {
		return
	}
	if old := s.timers[agentID]; old != nil {
		old.t.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timers[agentID] = &revertTimer{
		gen: gen,
		t:   time.AfterFunc(s.delay, func() { s.revert(agentID, gen) }),
	}
}

func (s *Store) revert(agentID string, gen uint64) {
	s.mu.Lock()
	rt := s.timers[agentID]
	if s.closed || rt == nil || rt.gen != gen {
		// stale: a newer trigger or Close replaced this timer after it fired
		s.mu.Unlock()
		return
	}
	delete(s.timers, agentID)
	i := s.agentIndex(agentID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.state.Agents[i].Status = models.AgentActive
	s.persistLocked(context.Background())
	s.mu.Unlock()
	s.emit(Event{Type: EventAgentUpdate, ID: agentID})
}

// --- Recommendations ---

// Recommendations returns all recommendations, newest first.
func (s *Store) Recommendations() []models.Recommendation {
	return s.filterRecommendations(func(models.Recommendation) bool { return true })
}

// RecommendationsByPriority returns the recommendations with priority p, newest first.
func (s *Store) RecommendationsByPriority(p models.Priority) []models.Recommendation {
	return s.filterRecommendations(func(r models.Recommendation) bool { return r.Priority == p })
}

func (s *Store) filterRecommendations(keep func(models.Recommendation) bool) []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Recommendation{}
	for _, r := range s.state.Recommendations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// AddRecommendation assigns a fresh id and the current time and inserts r at the front.
func (s *Store) AddRecommendation(ctx context.Context, r models.Recommendation) models.Recommendation {
	s.mu.Lock()
	r.ID = uuid.NewString()
	r.Timestamp = s.now()
	s.state.Recommendations = append([]models.Recommendation{r}, s.state.Recommendations...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventRecommendationAdded, ID: r.ID})
	return r
}

// DismissRecommendation removes recommendation id. It reports false for an unknown id.
func (s *Store) DismissRecommendation(ctx context.Context, id string) bool {
	s.mu.Lock()
	for i, r := range s.state.Recommendations {
		if r.ID != id {
			continue
		}
		s.state.Recommendations = append(s.state.Recommendations[:i:i], s.state.Recommendations[i+1:]...)
		s.persistLocked(ctx)
		s.mu.Unlock()
		s.emit(Event{Type: EventRecommendationDismiss, ID: id})
		return true
	}
	s.mu.Unlock()
	return false
}

// ProcessAgentRecommendations hands every critical recommendation raised by the alert agent to
// the notifier and returns them. State is not modified.
func (s *Store) ProcessAgentRecommendations(ctx context.Context) []models.Recommendation {
	s.mu.Lock()
	var critical []models.Recommendation
	for _, r := range s.state.Recommendations {
		if r.Priority == models.PriorityCritical && r.AgentID == s.alertAgentID {
			critical = append(critical, r)
		}
	}
	s.mu.Unlock()

	for _, r := range critical {
		s.log.Info("processing critical recommendation", "agent", r.AgentID, "recommendation", r.ID, "title", r.Title)
		if s.notifier == nil {
			continue
		}
		msg := fmt.Sprintf("[critical] %s: %s", r.Title, r.Description)
		if r.Action != "" {
			msg += " (action: " + r.Action + ")"
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.log.Warn("critical recommendation notify failed", "recommendation", r.ID, "err", err)
		}
	}
	if len(critical) > 0 {
		s.emit(Event{Type: EventRecommendationsProcess})
	}
	return critical
}

// --- Automation rules ---

// AutomationRules returns all rules in insertion order.
func (s *Store) AutomationRules() []models.AutomationRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AutomationRule, 0, len(s.state.AutomationRules))
	for _, r := range s.state.AutomationRules {
		out = append(out, cloneRule(r))
	}
	return out
}

// AutomationRule returns the rule with id, if present.
func (s *Store) AutomationRule(id string) (models.AutomationRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.ruleIndex(id); i >= 0 {
		return cloneRule(s.state.AutomationRules[i]), true
	}
	return models.AutomationRule{}, false
}

// AddAutomationRule assigns an id, zeroes the execution counter and appends r.
func (s *Store) AddAutomationRule(ctx context.Context, r models.AutomationRule) models.AutomationRule {
	s.mu.Lock()
	r = cloneRule(r)
	r.ID = uuid.NewString()
	r.ExecutionCount = 0
	r.LastTriggered = nil
	if r.Conditions == nil {
		r.Conditions = []string{}
	}
	if r.Actions == nil {
		r.Actions = []string{}
	}
	s.state.AutomationRules = append(s.state.AutomationRules, r)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventRuleAdded, ID: r.ID})
	return cloneRule(r)
}

// ToggleAutomationRule flips the enabled flag of rule id.
func (s *Store) ToggleAutomationRule(ctx context.Context, id string) bool {
	return s.updateRule(ctx, id, func(r *models.AutomationRule) { r.Enabled = !r.Enabled })
}

// ExecuteAutomationRule records one execution. Conditions and actions are not evaluated.
func (s *Store) ExecuteAutomationRule(ctx context.Context, id string) bool {
	return s.updateRule(ctx, id, func(r *models.AutomationRule) {
		r.ExecutionCount++
		at := s.now()
		r.LastTriggered = &at
	})
}

func (s *Store) updateRule(ctx context.Context, id string, fn func(*models.AutomationRule)) bool {
	s.mu.Lock()
	i := s.ruleIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.state.AutomationRules[i])
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventRuleUpdate, ID: id})
	return true
}

// --- Tasks ---

// Tasks returns all tasks in creation order.
func (s *Store) Tasks() []models.AgentTask {
	return s.filterTasks(func(models.AgentTask) bool { return true })
}

// TasksByAgent returns the tasks assigned to agentID.
func (s *Store) TasksByAgent(agentID string) []models.AgentTask {
	return s.filterTasks(func(t models.AgentTask) bool { return t.AgentID == agentID })
}

// Task returns the task with id, if present.
func (s *Store) Task(id string) (models.AgentTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.taskIndex(id); i >= 0 {
		return cloneTask(s.state.Tasks[i]), true
	}
	return models.AgentTask{}, false
}

func (s *Store) filterTasks(keep func(models.AgentTask) bool) []models.AgentTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.AgentTask{}
	for _, t := range s.state.Tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// AddTask assigns an id and creation time and appends t. An empty status becomes pending.
func (s *Store) AddTask(ctx context.Context, t models.AgentTask) models.AgentTask {
	s.mu.Lock()
	t = cloneTask(t)
	t.Data = compactRaw(t.Data)
	t.Result = compactRaw(t.Result)
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.CompletedAt = nil
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Status.Terminal() {
		at := t.CreatedAt
		t.CompletedAt = &at
	}
	s.state.Tasks = append(s.state.Tasks, t)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventTaskAdded, ID: t.ID})
	return cloneTask(t)
}

// UpdateTaskStatus sets status and, when result is non-nil, the result.
// CompletedAt is stamped when status becomes completed or failed.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, result json.RawMessage) bool {
	s.mu.Lock()
	i := s.taskIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	t := &s.state.Tasks[i]
	t.Status = status
	if result != nil {
		t.Result = compactRaw(result)
	}
	if status.Terminal() {
		at := s.now()
		t.CompletedAt = &at
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.emit(Event{Type: EventTaskUpdate, ID: id})
	return true
}

// --- internals ---

func (s *Store) agentIndex(id string) int {
	for i := range s.state.Agents {
		if s.state.Agents[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ruleIndex(id string) int {
	for i := range s.state.AutomationRules {
		if s.state.AutomationRules[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taskIndex(id string) int {
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked saves the current state. A failed save keeps the in-memory change.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.persister.Save(ctx, cloneSnapshot(s.state)); err != nil {
		s.log.Warn("persist agent store failed", "err", err)
	}
}

func (s *Store) emit(events ...Event) {
	if s.onChange == nil {
		return
	}
	for _, ev := range events {
		s.onChange(ev)
	}
}
