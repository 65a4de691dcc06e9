// Package automation runs enabled automation rules on their cron schedules.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/otel"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/robfig/cron/v3"
)

// Parser accepts six-field expressions with seconds ("0 */15 * * * *") and descriptors ("@hourly", "@every 10m").
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is a valid rule schedule. Empty means manual only.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := Parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// Executor is the part of the agent store the scheduler drives.
type Executor interface {
	AutomationRules() []models.AutomationRule
	ExecuteAutomationRule(ctx context.Context, id string) bool
}

type entry struct {
	id   cron.EntryID
	spec string
}

// Scheduler keeps one cron entry per enabled rule with a schedule.
type Scheduler struct {
	exec Executor
	cron *cron.Cron
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// NewScheduler returns a stopped scheduler. Call Sync to load rules and Start to run.
func NewScheduler(exec Executor, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		exec:    exec,
		cron:    cron.New(cron.WithParser(Parser), cron.WithLocation(time.UTC)),
		log:     log,
		entries: make(map[string]entry),
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Sync reconciles cron entries with the current rules: disabled, unscheduled or removed rules
// lose their entry, changed schedules are replaced. Rules with an invalid schedule are skipped.
func (s *Scheduler) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]string)
	for _, r := range s.exec.AutomationRules() {
		if r.Enabled && r.Schedule != "" {
			want[r.ID] = r.Schedule
		}
	}
	for id, e := range s.entries {
		if spec, ok := want[id]; !ok || spec != e.spec {
			s.cron.Remove(e.id)
			delete(s.entries, id)
		}
	}
	for id, spec := range want {
		if _, ok := s.entries[id]; ok {
			continue
		}
		ruleID := id
		eid, err := s.cron.AddFunc(spec, func() { s.run(ruleID) })
		if err != nil {
			s.log.Warn("skipping automation rule with invalid schedule", "rule", id, "schedule", spec, "err", err)
			continue
		}
		s.entries[id] = entry{id: eid, spec: spec}
	}
}

func (s *Scheduler) run(ruleID string) {
	ctx := context.Background()
	if !s.exec.ExecuteAutomationRule(ctx, ruleID) {
		s.log.Warn("scheduled automation rule no longer exists", "rule", ruleID)
		return
	}
	otel.RecordRuleExecution(ctx, ruleID, "schedule")
	s.log.Info("automation rule executed", "rule", ruleID, "trigger", "schedule")
}

// Next returns the next run time per scheduled rule id, sorted by rule id.
func (s *Scheduler) Next() []ScheduledRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduledRule, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, ScheduledRule{RuleID: id, Schedule: e.spec, Next: s.cron.Entry(e.id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// ScheduledRule is one rule with a cron entry.
type ScheduledRule struct {
	RuleID   string    `json:"ruleId"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
}
