package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce       sync.Once
	agentActionsCounter   metric.Int64Counter
	recommendationCounter metric.Int64Counter
	ruleExecutionsCounter metric.Int64Counter
	taskOpsCounter        metric.Int64Counter
	criticalNotifyCounter metric.Int64Counter
	sseConnectionsGauge   metric.Int64ObservableGauge
	sseEventsCounter      metric.Int64Counter
	sseConnections        int64
	sseConnectionsMu      sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		agentActionsCounter, err = m.Int64Counter("careagent_agent_actions_total", metric.WithDescription("Agent actions triggered"))
		if err != nil {
			return
		}
		recommendationCounter, err = m.Int64Counter("careagent_recommendation_operations_total", metric.WithDescription("Recommendation operations (add, dismiss)"))
		if err != nil {
			return
		}
		ruleExecutionsCounter, err = m.Int64Counter("careagent_rule_executions_total", metric.WithDescription("Automation rule executions, manual and scheduled"))
		if err != nil {
			return
		}
		taskOpsCounter, err = m.Int64Counter("careagent_task_operations_total", metric.WithDescription("Task operations (create, update)"))
		if err != nil {
			return
		}
		criticalNotifyCounter, err = m.Int64Counter("careagent_critical_recommendations_processed_total", metric.WithDescription("Critical recommendations handed to notifiers"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("careagent_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("careagent_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
	})
	return err
}

// RecordAgentAction records one TriggerAgentAction call.
func RecordAgentAction(ctx context.Context, agent, action string) {
	if agentActionsCounter == nil {
		return
	}
	agentActionsCounter.Add(ctx, 1, metric.WithAttributes(AttrAgent.String(agent), AttrAction.String(action)))
}

// RecordRecommendationOp records a recommendation add or dismiss.
func RecordRecommendationOp(ctx context.Context, op, priority string) {
	if recommendationCounter == nil {
		return
	}
	recommendationCounter.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op), AttrPriority.String(priority)))
}

// RecordRuleExecution records one rule execution; trigger is "manual" or "schedule".
func RecordRuleExecution(ctx context.Context, rule, trigger string) {
	if ruleExecutionsCounter == nil {
		return
	}
	ruleExecutionsCounter.Add(ctx, 1, metric.WithAttributes(AttrRule.String(rule), AttrOperation.String(trigger)))
}

// RecordTaskOp records a task operation (create, update).
func RecordTaskOp(ctx context.Context, op, status string) {
	if taskOpsCounter == nil {
		return
	}
	taskOpsCounter.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op), AttrStatus.String(status)))
}

// RecordCriticalProcessed records n critical recommendations handed to notifiers.
func RecordCriticalProcessed(ctx context.Context, n int) {
	if criticalNotifyCounter == nil || n == 0 {
		return
	}
	criticalNotifyCounter.Add(ctx, int64(n))
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// AgentStatusFunc returns agent counts keyed by status. Used for the careagent_agents gauge.
type AgentStatusFunc func() map[string]int64

// InitMetricsWithAgentStatus creates instruments and optionally registers a callback for the
// per-status agent gauge. Call after InitMeterProvider. If statusCount is nil, the gauge is not reported.
func InitMetricsWithAgentStatus(ctx context.Context, statusCount AgentStatusFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if statusCount == nil {
		return nil
	}
	m := Meter()
	agentsGauge, err := m.Int64ObservableGauge("careagent_agents", metric.WithDescription("Number of agents by status"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for status, n := range statusCount() {
			o.ObserveInt64(agentsGauge, n, metric.WithAttributes(AttrStatus.String(status)))
		}
		return nil
	}, agentsGauge)
	return err
}
