package agentstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// fakeClock advances one second per call so every timestamp is distinct.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	opts = append([]Option{WithActionDelay(20 * time.Millisecond)}, opts...)
	s, err := New(context.Background(), p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_seedsFromCatalog(t *testing.T) {
	t.Parallel()
	s, p := newTestStore(t)
	cat := DefaultCatalog()
	if got := len(s.Agents()); got != len(cat.Agents) {
		t.Fatalf("agents: got %d, want %d", got, len(cat.Agents))
	}
	if got := len(s.AutomationRules()); got != len(cat.Rules) {
		t.Fatalf("rules: got %d, want %d", got, len(cat.Rules))
	}
	if len(s.Recommendations()) != 0 || len(s.Tasks()) != 0 {
		t.Fatal("expected no recommendations or tasks after seeding")
	}
	if p.Saves() != 1 {
		t.Fatalf("expected seed to be saved once, got %d", p.Saves())
	}
	for _, r := range s.AutomationRules() {
		if r.ExecutionCount != 0 {
			t.Fatalf("rule %s: executionCount=%d", r.ID, r.ExecutionCount)
		}
	}
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) (*models.Snapshot, error) {
	return nil, errors.New("disk gone")
}
func (failingPersister) Save(context.Context, models.Snapshot) error { return errors.New("disk gone") }

func TestNew_loadError(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), failingPersister{}); err == nil {
		t.Fatal("expected error when persister cannot load")
	}
}

func TestActiveAgentsAndByType(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	for _, a := range s.ActiveAgents() {
		if a.Status != models.AgentActive {
			t.Fatalf("ActiveAgents returned %s with status %s", a.ID, a.Status)
		}
	}
	diag := s.AgentsByType(models.AgentDiagnostic)
	if len(diag) != 1 || diag[0].ID != "lab-analysis" {
		t.Fatalf("AgentsByType(diagnostic): %+v", diag)
	}
	if got := s.AgentsByType("unknown"); len(got) != 0 {
		t.Fatalf("AgentsByType(unknown): %+v", got)
	}
}

func TestUpdateAgentStatus_onlyTouchesTarget(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	before := s.Agents()
	target := before[1].ID

	if !s.UpdateAgentStatus(context.Background(), target, models.AgentOffline) {
		t.Fatal("UpdateAgentStatus: expected true for known id")
	}
	after := s.Agents()
	for i := range before {
		want := before[i]
		if want.ID == target {
			want.Status = models.AgentOffline
		}
		if !reflect.DeepEqual(after[i], want) {
			t.Fatalf("agent %s: got %+v, want %+v", want.ID, after[i], want)
		}
	}
}

func TestUpdateAgentStatus_unknownIsNoop(t *testing.T) {
	t.Parallel()
	s, p := newTestStore(t)
	saves := p.Saves()
	if s.UpdateAgentStatus(context.Background(), "nope", models.AgentIdle) {
		t.Fatal("expected false for unknown id")
	}
	if p.Saves() != saves {
		t.Fatal("no-op must not persist")
	}
}

func TestAddRecommendation_prependsWithFreshID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	seen := make(map[string]bool)
	for i, title := range []string{"a", "b", "c"} {
		r := s.AddRecommendation(ctx, models.Recommendation{
			AgentID:  "patient-flow",
			Type:     models.RecommendationSuggestion,
			Priority: models.PriorityLow,
			Title:    title,
		})
		if r.ID == "" || seen[r.ID] {
			t.Fatalf("recommendation %d: id %q not fresh", i, r.ID)
		}
		seen[r.ID] = true
		if r.Timestamp.IsZero() {
			t.Fatal("expected timestamp")
		}
		if first := s.Recommendations()[0]; first.ID != r.ID {
			t.Fatalf("expected newest first, got %q at index 0", first.Title)
		}
	}
}

func TestDismissRecommendation_removedFromEveryPriority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	var ids []string
	for _, p := range models.Priorities() {
		ids = append(ids, s.AddRecommendation(ctx, models.Recommendation{Priority: p, Title: string(p)}).ID)
	}
	for _, id := range ids {
		if !s.DismissRecommendation(ctx, id) {
			t.Fatalf("DismissRecommendation(%s): expected true", id)
		}
		for _, p := range models.Priorities() {
			for _, r := range s.RecommendationsByPriority(p) {
				if r.ID == id {
					t.Fatalf("dismissed %s still listed under %s", id, p)
				}
			}
		}
	}
	if s.DismissRecommendation(ctx, ids[0]) {
		t.Fatal("second dismiss should be a no-op")
	}
}

func TestCriticalRecommendationScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	if len(s.Recommendations()) != 0 {
		t.Fatal("expected zero recommendations")
	}
	s.AddRecommendation(ctx, models.Recommendation{
		AgentID:     "clinical-decision",
		Type:        models.RecommendationAlert,
		Priority:    models.PriorityCritical,
		Title:       "X",
		Description: "Potassium 6.8 mmol/L",
		Confidence:  0.97,
	})
	got := s.RecommendationsByPriority(models.PriorityCritical)
	if len(got) != 1 || got[0].Title != "X" {
		t.Fatalf("RecommendationsByPriority(critical): %+v", got)
	}
}

func TestExecuteAutomationRule_twice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := newFakeClock()
	s, _ := newTestStore(t, WithClock(clock.Now))
	rule := s.AutomationRules()[0]

	if !s.ExecuteAutomationRule(ctx, rule.ID) {
		t.Fatal("first execute: expected true")
	}
	first, _ := s.AutomationRule(rule.ID)
	if !s.ExecuteAutomationRule(ctx, rule.ID) {
		t.Fatal("second execute: expected true")
	}
	second, _ := s.AutomationRule(rule.ID)

	if second.ExecutionCount != rule.ExecutionCount+2 {
		t.Fatalf("executionCount: got %d, want %d", second.ExecutionCount, rule.ExecutionCount+2)
	}
	if second.LastTriggered == nil || !second.LastTriggered.After(*first.LastTriggered) {
		t.Fatalf("lastTriggered should be the second call's time: first=%v second=%v", first.LastTriggered, second.LastTriggered)
	}
	if s.ExecuteAutomationRule(ctx, "missing") {
		t.Fatal("unknown rule: expected false")
	}
}

func TestAddAndToggleAutomationRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	n := len(s.AutomationRules())
	r := s.AddAutomationRule(ctx, models.AutomationRule{
		ID:             "caller-id",
		Name:           "Discharge summary",
		Trigger:        "patient_discharged",
		ExecutionCount: 42,
		Enabled:        true,
	})
	if r.ID == "" || r.ID == "caller-id" {
		t.Fatalf("expected a store-assigned id, got %q", r.ID)
	}
	if r.ExecutionCount != 0 {
		t.Fatalf("executionCount: got %d, want 0", r.ExecutionCount)
	}
	rules := s.AutomationRules()
	if len(rules) != n+1 || rules[n].ID != r.ID {
		t.Fatal("expected rule appended at the end")
	}
	if !s.ToggleAutomationRule(ctx, r.ID) {
		t.Fatal("toggle: expected true")
	}
	if got, _ := s.AutomationRule(r.ID); got.Enabled {
		t.Fatal("expected rule disabled after toggle")
	}
}

func TestAddTaskAndUpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	task := s.AddTask(ctx, models.AgentTask{AgentID: "billing-automation", Type: "claim_check", Data: json.RawMessage(`{"claim":"C-1"}`)})
	if task.Status != models.TaskPending || task.CompletedAt != nil {
		t.Fatalf("new task: %+v", task)
	}
	if !s.UpdateTaskStatus(ctx, task.ID, models.TaskProcessing, nil) {
		t.Fatal("update: expected true")
	}
	if got, _ := s.Task(task.ID); got.CompletedAt != nil {
		t.Fatal("processing must not stamp completedAt")
	}
	if !s.UpdateTaskStatus(ctx, task.ID, models.TaskCompleted, json.RawMessage(`{"ok":true}`)) {
		t.Fatal("complete: expected true")
	}
	got, _ := s.Task(task.ID)
	if got.CompletedAt == nil || string(got.Result) != `{"ok":true}` {
		t.Fatalf("completed task: %+v", got)
	}
	if s.UpdateTaskStatus(ctx, "missing", models.TaskFailed, nil) {
		t.Fatal("unknown task: expected false")
	}
	if len(s.TasksByAgent("billing-automation")) != 1 {
		t.Fatal("TasksByAgent: expected one task")
	}
}

func TestTriggerAgentAction_processingThenActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	task := s.TriggerAgentAction(ctx, "readmission-risk", "score_discharges", json.RawMessage(`{"ward":"4B"}`))
	a, _ := s.Agent("readmission-risk")
	if a.Status != models.AgentProcessing {
		t.Fatalf("status right after trigger: %s", a.Status)
	}
	if a.LastAction == nil || *a.LastAction != "score_discharges" || a.LastActionTime == nil {
		t.Fatalf("last action not recorded: %+v", a)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Status != models.TaskProcessing {
		t.Fatalf("tasks after trigger: %+v", tasks)
	}

	waitFor(t, "agent to return to active", func() bool {
		a, _ := s.Agent("readmission-risk")
		return a.Status == models.AgentActive
	})
	if got, _ := s.Task(task.ID); got.Status != models.TaskProcessing {
		t.Fatalf("task status after delay: got %s, want processing", got.Status)
	}
}

func TestTriggerAgentAction_revertIgnoresManualToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.TriggerAgentAction(ctx, "lab-analysis", "triage", nil)
	s.UpdateAgentStatus(ctx, "lab-analysis", models.AgentOffline)

	waitFor(t, "revert timer", func() bool { return s.PendingActions() == 0 })
	if a, _ := s.Agent("lab-analysis"); a.Status != models.AgentActive {
		t.Fatalf("status after delay: got %s, want active", a.Status)
	}
}

func TestTriggerAgentAction_retriggerReplacesTimer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t, WithActionDelay(80*time.Millisecond))
	s.TriggerAgentAction(ctx, "patient-flow", "rebalance", nil)
	time.Sleep(50 * time.Millisecond)
	s.TriggerAgentAction(ctx, "patient-flow", "rebalance", nil)
	if s.PendingActions() != 1 {
		t.Fatalf("pending: got %d, want 1", s.PendingActions())
	}
	// The first timer would have fired by now; the agent must still be processing.
	time.Sleep(50 * time.Millisecond)
	if a, _ := s.Agent("patient-flow"); a.Status != models.AgentProcessing {
		t.Fatalf("status before second delay elapsed: %s", a.Status)
	}
	waitFor(t, "second revert", func() bool {
		a, _ := s.Agent("patient-flow")
		return a.Status == models.AgentActive
	})
	if len(s.TasksByAgent("patient-flow")) != 2 {
		t.Fatal("expected one task per trigger")
	}
}

func TestTriggerAgentAction_unknownAgentStillCreatesTask(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	task := s.TriggerAgentAction(context.Background(), "ghost", "noop", nil)
	if task.AgentID != "ghost" || len(s.Tasks()) != 1 {
		t.Fatalf("task: %+v", task)
	}
	if _, ok := s.Agent("ghost"); ok {
		t.Fatal("unknown agent must not be created")
	}
}

func TestClose_cancelsPendingRevert(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	s.TriggerAgentAction(context.Background(), "billing-automation", "reconcile", nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if a, _ := s.Agent("billing-automation"); a.Status != models.AgentProcessing {
		t.Fatalf("status after Close: got %s, want processing", a.Status)
	}
}

func TestPersistence_roundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewMemoryPersister()
	s, err := New(ctx, p, WithActionDelay(time.Hour))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.AddRecommendation(ctx, models.Recommendation{AgentID: "lab-analysis", Priority: models.PriorityHigh, Title: "Repeat troponin"})
	s.ExecuteAutomationRule(ctx, "critical-lab-alert")
	triggered := s.TriggerAgentAction(ctx, "lab-analysis", "triage", json.RawMessage(`{"sample": "S-9"}`))
	s.AddTask(ctx, models.AgentTask{AgentID: "patient-flow", Type: "transfer", Status: models.TaskFailed})
	s.AddTask(ctx, models.AgentTask{AgentID: "patient-flow", Type: "discharge", Data: json.RawMessage("{\n  \"bed\": 12\n}")})
	s.UpdateTaskStatus(ctx, triggered.ID, models.TaskCompleted, json.RawMessage(`{ "flag" : "critical" }`))
	want := s.Snapshot()
	if task, _ := s.Task(triggered.ID); string(task.Data) != `{"sample":"S-9"}` || string(task.Result) != `{"flag":"critical"}` {
		t.Fatalf("payloads not compacted: data %s result %s", task.Data, task.Result)
	}
	_ = s.Close()

	reloaded, err := New(ctx, p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	if got := reloaded.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestPersistFailureKeepsInMemoryChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := &flakyPersister{}
	s, err := New(ctx, p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()
	p.fail = true
	s.AddRecommendation(ctx, models.Recommendation{Title: "kept"})
	if len(s.Recommendations()) != 1 {
		t.Fatal("mutation must survive a failed save")
	}
}

type flakyPersister struct {
	MemoryPersister
	fail bool
}

func (f *flakyPersister) Save(ctx context.Context, snap models.Snapshot) error {
	if f.fail {
		return errors.New("write failed")
	}
	return f.MemoryPersister.Save(ctx, snap)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func TestProcessAgentRecommendations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := &recordingNotifier{}
	s, p := newTestStore(t, WithNotifier(n))
	s.AddRecommendation(ctx, models.Recommendation{AgentID: "clinical-decision", Priority: models.PriorityCritical, Title: "Sepsis risk", Action: "Start bundle"})
	s.AddRecommendation(ctx, models.Recommendation{AgentID: "clinical-decision", Priority: models.PriorityHigh, Title: "Not critical"})
	s.AddRecommendation(ctx, models.Recommendation{AgentID: "lab-analysis", Priority: models.PriorityCritical, Title: "Other agent"})
	before := s.Snapshot()
	saves := p.Saves()

	got := s.ProcessAgentRecommendations(ctx)
	if len(got) != 1 || got[0].Title != "Sepsis risk" {
		t.Fatalf("processed: %+v", got)
	}
	if len(n.msgs) != 1 {
		t.Fatalf("notifications: %v", n.msgs)
	}
	if !reflect.DeepEqual(s.Snapshot(), before) || p.Saves() != saves {
		t.Fatal("ProcessAgentRecommendations must not mutate state")
	}
}

func TestOnChangeEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var mu sync.Mutex
	var events []Event
	s, _ := newTestStore(t, WithOnChange(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))
	r := s.AddRecommendation(ctx, models.Recommendation{Title: "x"})
	s.DismissRecommendation(ctx, r.ID)
	s.ToggleAutomationRule(ctx, "critical-lab-alert")

	mu.Lock()
	defer mu.Unlock()
	want := []Event{
		{Type: EventRecommendationAdded, ID: r.ID},
		{Type: EventRecommendationDismiss, ID: r.ID},
		{Type: EventRuleUpdate, ID: "critical-lab-alert"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events: got %+v, want %+v", events, want)
	}
}
