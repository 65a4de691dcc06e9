package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/httpapi"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/identity"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:3650", "")
	if c.BaseURL != "http://localhost:3650" || c.APIKey != "" {
		t.Errorf("New: %+v", c)
	}
	c2 := New("http://localhost:3650", "secret")
	if c2.APIKey != "secret" {
		t.Errorf("New with key: %+v", c2)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ok, err := New(srv.URL, "").Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !ok {
		t.Fatal("Health: expected ok true")
	}
}

func TestHealth_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Health(context.Background())
	if err == nil {
		t.Fatal("expected error from 503")
	}
	if err.Error() != "api GET /health: down" {
		t.Fatalf("error text: %q", err)
	}
	if IsNotFound(err) {
		t.Fatal("503 is not a not-found error")
	}
}

func TestClient_setsHeaders(t *testing.T) {
	var gotKey, gotStaff string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotStaff = r.Header.Get("X-Staff-User")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "mykey")
	c.StaffUser = "amira"
	_, _ = c.Health(context.Background())
	if gotKey != "mykey" || gotStaff != "amira" {
		t.Errorf("headers: key=%q staff=%q", gotKey, gotStaff)
	}
}

func newLiveClient(t *testing.T) (*Client, string) {
	t.Helper()
	home := t.TempDir()
	app, err := httpapi.NewApp(httpapi.ServerOptions{
		Home:        home,
		DBDriver:    "memory",
		ActionDelay: 20 * time.Millisecond,
		APIKey:      "k",
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	srv := httptest.NewServer(app.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return New(srv.URL, "k"), home
}

func TestClient_againstServer(t *testing.T) {
	c, home := newLiveClient(t)
	ctx := context.Background()

	agents, err := c.ListAgents(ctx, AgentFilter{Type: models.AgentAdministrative})
	if err != nil || len(agents) != 2 {
		t.Fatalf("ListAgents(administrative): %d, %v", len(agents), err)
	}
	if _, err := c.GetAgent(ctx, "ghost"); !IsNotFound(err) {
		t.Fatalf("GetAgent(ghost): %v", err)
	}
	a, err := c.UpdateAgentStatus(ctx, "readmission-risk", models.AgentActive)
	if err != nil || a.Status != models.AgentActive {
		t.Fatalf("UpdateAgentStatus: %+v, %v", a, err)
	}

	task, err := c.TriggerAction(ctx, "lab-analysis", "triage", json.RawMessage(`{"sample":"S-9"}`))
	if err != nil || task.Status != models.TaskProcessing {
		t.Fatalf("TriggerAction: %+v, %v", task, err)
	}
	if tasks, err := c.AgentTasks(ctx, "lab-analysis"); err != nil || len(tasks) != 1 {
		t.Fatalf("AgentTasks: %v, %v", tasks, err)
	}
	done, err := c.UpdateTaskStatus(ctx, task.ID, models.TaskCompleted, json.RawMessage(`{"ok":1}`))
	if err != nil || done.Status != models.TaskCompleted || done.CompletedAt == nil {
		t.Fatalf("UpdateTaskStatus: %+v, %v", done, err)
	}
	if got, err := c.GetTask(ctx, task.ID); err != nil || got.ID != task.ID {
		t.Fatalf("GetTask: %+v, %v", got, err)
	}
	added, err := c.AddTask(ctx, models.AgentTask{AgentID: "patient-flow", Type: "bed_check"})
	if err != nil || added.Status != models.TaskPending {
		t.Fatalf("AddTask: %+v, %v", added, err)
	}
	if pending, _ := c.ListTasks(ctx, TaskFilter{Status: models.TaskPending}); len(pending) != 1 {
		t.Fatalf("ListTasks(pending): %+v", pending)
	}

	rec, err := c.AddRecommendation(ctx, models.Recommendation{
		AgentID:    models.DefaultAlertAgentID,
		Type:       models.RecommendationAlert,
		Priority:   models.PriorityCritical,
		Title:      "QT prolongation",
		Confidence: 0.8,
	})
	if err != nil || rec.ID == "" {
		t.Fatalf("AddRecommendation: %+v, %v", rec, err)
	}
	if processed, err := c.ProcessRecommendations(ctx); err != nil || len(processed) != 1 {
		t.Fatalf("ProcessRecommendations: %v, %v", processed, err)
	}
	if err := c.DismissRecommendation(ctx, rec.ID); err != nil {
		t.Fatalf("DismissRecommendation: %v", err)
	}
	if recs, _ := c.ListRecommendations(ctx, ""); len(recs) != 0 {
		t.Fatalf("after dismiss: %+v", recs)
	}

	rule, err := c.AddRule(ctx, models.AutomationRule{Name: "Ward sweep", Trigger: "manual", Enabled: true})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if r, err := c.ExecuteRule(ctx, rule.ID); err != nil || r.ExecutionCount != 1 {
		t.Fatalf("ExecuteRule: %+v, %v", r, err)
	}
	if r, err := c.ToggleRule(ctx, rule.ID); err != nil || r.Enabled {
		t.Fatalf("ToggleRule: %+v, %v", r, err)
	}
	if _, err := c.AddRule(ctx, models.AutomationRule{Name: "bad", Schedule: "nope"}); err == nil {
		t.Fatal("AddRule with invalid schedule should fail")
	}

	if err := identity.SaveStaff(home, models.Staff{Name: "amira", Role: models.RoleDoctor}); err != nil {
		t.Fatal(err)
	}
	c.StaffUser = "amira"
	me, err := c.Me(ctx)
	if err != nil || me.Role != models.RoleDoctor {
		t.Fatalf("Me: %+v, %v", me, err)
	}
	d, err := c.Dashboard(ctx, "")
	if err != nil || d.Role != models.RoleDoctor {
		t.Fatalf("Dashboard: %+v, %v", d, err)
	}

	msgs, err := c.I18n(ctx, "ar")
	if err != nil || msgs.Dir != "rtl" {
		t.Fatalf("I18n: %+v, %v", msgs, err)
	}
	snap, err := c.Snapshot(ctx)
	if err != nil || len(snap.Tasks) != 2 {
		t.Fatalf("Snapshot: %d tasks, %v", len(snap.Tasks), err)
	}
	cfg, err := c.Config(ctx)
	if err != nil || cfg.DBDriver != "memory" || cfg.ActionDelayMS != 20 {
		t.Fatalf("Config: %+v, %v", cfg, err)
	}
}

func TestClient_wrongAPIKey(t *testing.T) {
	c, _ := newLiveClient(t)
	c.APIKey = "wrong"
	_, err := c.ListRules(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}
