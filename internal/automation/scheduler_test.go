package automation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

type fakeRules struct {
	mu    sync.Mutex
	rules []models.AutomationRule
	runs  map[string]int
}

func (f *fakeRules) AutomationRules() []models.AutomationRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AutomationRule(nil), f.rules...)
}

func (f *fakeRules) ExecuteAutomationRule(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.ID == id {
			f.runs[id]++
			return true
		}
	}
	return false
}

func (f *fakeRules) set(rules ...models.AutomationRule) {
	f.mu.Lock()
	f.rules = rules
	f.mu.Unlock()
}

func (f *fakeRules) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[id]
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"", "0 */15 * * * *", "0 0 8 * * *", "@hourly", "@every 10m"} {
		if err := ValidateSchedule(ok); err != nil {
			t.Errorf("ValidateSchedule(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"*/15 * * * *", "every day", "61 * * * * *"} {
		if err := ValidateSchedule(bad); err == nil {
			t.Errorf("ValidateSchedule(%q): expected error", bad)
		}
	}
}

func TestScheduler_SyncReconcilesEntries(t *testing.T) {
	t.Parallel()
	f := &fakeRules{runs: map[string]int{}}
	f.set(
		models.AutomationRule{ID: "a", Enabled: true, Schedule: "0 0 8 * * *"},
		models.AutomationRule{ID: "b", Enabled: false, Schedule: "0 0 9 * * *"},
		models.AutomationRule{ID: "c", Enabled: true},
		models.AutomationRule{ID: "d", Enabled: true, Schedule: "not a cron"},
	)
	s := NewScheduler(f, nil)
	s.Sync()
	next := s.Next()
	if len(next) != 1 || next[0].RuleID != "a" {
		t.Fatalf("after first sync: %+v", next)
	}

	f.set(
		models.AutomationRule{ID: "a", Enabled: true, Schedule: "0 30 8 * * *"},
		models.AutomationRule{ID: "b", Enabled: true, Schedule: "0 0 9 * * *"},
	)
	s.Sync()
	next = s.Next()
	if len(next) != 2 || next[0].Schedule != "0 30 8 * * *" || next[1].RuleID != "b" {
		t.Fatalf("after second sync: %+v", next)
	}

	f.set()
	s.Sync()
	if got := s.Next(); len(got) != 0 {
		t.Fatalf("after removing rules: %+v", got)
	}
}

func TestScheduler_runsDueRule(t *testing.T) {
	t.Parallel()
	f := &fakeRules{runs: map[string]int{}}
	f.set(models.AutomationRule{ID: "every-second", Enabled: true, Schedule: "* * * * * *"})
	s := NewScheduler(f, nil)
	s.Sync()
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if f.count("every-second") > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("rule was not executed within 3s")
}
