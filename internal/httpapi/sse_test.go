package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/agentstore"
)

func TestSSEHub_Subscribe_Publish_Unsubscribe(t *testing.T) {
	hub := NewSSEHub()
	ch := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("Subscribers: got %d", hub.Subscribers())
	}
	hub.Publish(agentstore.Event{Type: agentstore.EventRuleUpdate, ID: "critical-lab-alert"})
	msg := <-ch
	if string(msg) != `{"type":"rule_update","id":"critical-lab-alert"}` {
		t.Errorf("Publish: got %s", msg)
	}
	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch)
	_, ok := <-ch
	if ok {
		t.Error("expected channel closed after Unsubscribe")
	}
}

func TestSSEHub_Handler(t *testing.T) {
	hub := NewSSEHub()
	handler := hub.Handler()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		handler(rec, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	sc := bufio.NewScanner(rec.Body)
	var found bool
	for sc.Scan() {
		if strings.Contains(sc.Text(), "connected") {
			found = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !found {
		t.Error("expected response to contain \"connected\"")
	}
}

func TestSSEHub_slowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewSSEHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(ch)+10; i++ {
			hub.Publish(agentstore.Event{Type: agentstore.EventTaskAdded, ID: strconv.Itoa(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered %d of %d", len(ch), cap(ch))
	}
}

func TestSSEHub_typeFilter(t *testing.T) {
	hub := NewSSEHub()
	tasks := hub.Subscribe(agentstore.EventTaskAdded, agentstore.EventTaskUpdate)
	defer hub.Unsubscribe(tasks)
	all := hub.Subscribe()
	defer hub.Unsubscribe(all)

	hub.Publish(agentstore.Event{Type: agentstore.EventAgentUpdate, ID: "lab-analysis"})
	hub.Publish(agentstore.Event{Type: agentstore.EventTaskUpdate, ID: "t-1"})

	if len(all) != 2 {
		t.Fatalf("unfiltered stream got %d events, want 2", len(all))
	}
	if len(tasks) != 1 {
		t.Fatalf("task stream got %d events, want 1", len(tasks))
	}
	if msg := <-tasks; !strings.Contains(string(msg), `"id":"t-1"`) {
		t.Fatalf("task stream got %s", msg)
	}
}

func TestParseEventTypes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stream?types=agent_update,%20task_added,,", nil)
	got := parseEventTypes(req)
	if len(got) != 2 || got[0] != agentstore.EventAgentUpdate || got[1] != agentstore.EventTaskAdded {
		t.Fatalf("parseEventTypes: %v", got)
	}
	if got := parseEventTypes(httptest.NewRequest(http.MethodGet, "/stream", nil)); got != nil {
		t.Fatalf("no types: %v", got)
	}
}
