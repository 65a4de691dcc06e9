package otel

import (
	"context"
	"testing"
)

func TestInitMetrics_RecordOps(t *testing.T) {
	ctx := context.Background()
	_, err := InitMeterProvider(ctx, Deployment{ServiceName: "metrics-test"})
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordAgentAction(ctx, "lab-analysis", "triage")
	RecordRecommendationOp(ctx, "add", "critical")
	RecordRuleExecution(ctx, "critical-lab-alert", "manual")
	RecordTaskOp(ctx, "update", "completed")
	RecordCriticalProcessed(ctx, 2)
	RecordCriticalProcessed(ctx, 0)
	RecordSSEEvent(ctx)
}

func TestAddSSEConnection_RemoveSSEConnection(t *testing.T) {
	AddSSEConnection()
	AddSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection() // should not go negative
	sseConnectionsMu.Lock()
	n := sseConnections
	sseConnectionsMu.Unlock()
	if n != 0 {
		t.Fatalf("sseConnections=%d, want 0", n)
	}
}

func TestInitMetricsWithAgentStatus(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, Deployment{ServiceName: "agentstatus-test"})
	err := InitMetricsWithAgentStatus(ctx, func() map[string]int64 {
		return map[string]int64{"active": 4, "idle": 2}
	})
	if err != nil {
		t.Fatalf("InitMetricsWithAgentStatus: %v", err)
	}
}

func TestInitMetricsWithAgentStatus_nilFunc(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, Deployment{ServiceName: "agentstatus-nil-test"})
	if err := InitMetricsWithAgentStatus(ctx, nil); err != nil {
		t.Fatalf("InitMetricsWithAgentStatus(nil): %v", err)
	}
}
