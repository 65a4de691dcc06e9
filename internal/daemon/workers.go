package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/agentstore"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/automation"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/httpapi"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/otel"
)

// runRecommendationLoop escalates critical recommendations from the alert agent every interval
// until ctx is done. A non-positive interval disables the loop.
func runRecommendationLoop(ctx context.Context, app *httpapi.App, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed := app.Agents.ProcessAgentRecommendations(ctx)
			if len(processed) == 0 {
				continue
			}
			otel.RecordCriticalProcessed(ctx, len(processed))
			log.Info("critical recommendations escalated", "count", len(processed))
		}
	}
}

// startRuleScheduler loads scheduled rules into a cron scheduler and keeps it in sync with rule
// changes made through the API. The caller stops the returned scheduler.
func startRuleScheduler(app *httpapi.App, log *slog.Logger) *automation.Scheduler {
	sched := automation.NewScheduler(app.Agents, log)
	sched.Sync()
	app.OnChange(func(ev agentstore.Event) {
		switch ev.Type {
		case agentstore.EventRuleAdded, agentstore.EventRuleUpdate:
			sched.Sync()
		}
	})
	sched.Start()
	for _, r := range sched.Next() {
		log.Info("automation rule scheduled", "rule", r.RuleID, "schedule", r.Schedule, "next", r.Next)
	}
	return sched
}

// agentStatusCounts returns agent counts keyed by status for the agents gauge.
func agentStatusCounts(app *httpapi.App) otel.AgentStatusFunc {
	return func() map[string]int64 {
		counts := make(map[string]int64)
		for _, a := range app.Agents.Agents() {
			counts[string(a.Status)]++
		}
		return counts
	}
}
