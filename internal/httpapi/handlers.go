package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/automation"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/i18n"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/identity"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/otel"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// StaffHeader carries the username of the staff member making the request.
const StaffHeader = "X-Staff-User"

func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	if a.opts.MetricsHandler != nil {
		mux.Handle("/metrics", a.opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", a.handlePlainMetrics)
	}

	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		driver := a.opts.DBDriver
		if driver == "" {
			driver = "sqlite"
		}
		cfg := models.Config{
			Home:          a.Home,
			DBDriver:      driver,
			ActionDelayMS: a.opts.ActionDelay.Milliseconds(),
			AlertAgentID:  a.opts.AlertAgentID,
			BootstrapID:   getBootstrapID(a.Home),
		}
		if cfg.ActionDelayMS == 0 {
			cfg.ActionDelayMS = models.DefaultActionDelayMS
		}
		if cfg.AlertAgentID == "" {
			cfg.AlertAgentID = models.DefaultAlertAgentID
		}
		writeJSON(w, cfg)
	})

	mux.HandleFunc("/stream", a.Hub.Handler())
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, a.Agents.Snapshot())
	})

	mux.HandleFunc("/agents", a.handleAgents)
	mux.HandleFunc("/agents/", a.handleAgent)
	mux.HandleFunc("/recommendations", a.handleRecommendations)
	mux.HandleFunc("/recommendations/", a.handleRecommendation)
	mux.HandleFunc("/rules", a.handleRules)
	mux.HandleFunc("/rules/", a.handleRule)
	mux.HandleFunc("/tasks", a.handleTasks)
	mux.HandleFunc("/tasks/", a.handleTask)
	mux.HandleFunc("/dashboard", a.handleDashboard)
	mux.HandleFunc("/me", a.handleMe)
	mux.HandleFunc("/i18n", a.handleI18n)
}

func (a *App) handlePlainMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	counts := make(map[models.AgentStatus]int)
	for _, ag := range a.Agents.Agents() {
		counts[ag.Status]++
	}
	_, _ = fmt.Fprintf(w, "# TYPE careagent_agents gauge\n")
	for _, s := range []models.AgentStatus{models.AgentActive, models.AgentIdle, models.AgentProcessing, models.AgentOffline} {
		_, _ = fmt.Fprintf(w, "careagent_agents{status=%q} %d\n", s, counts[s])
	}
	_, _ = fmt.Fprintf(w, "# TYPE careagent_recommendations gauge\ncareagent_recommendations %d\n", len(a.Agents.Recommendations()))
	_, _ = fmt.Fprintf(w, "# TYPE careagent_pending_actions gauge\ncareagent_pending_actions %d\n", a.Agents.PendingActions())
}

// splitPath returns the path segments after prefix, e.g. "/agents/x/actions" -> ["x", "actions"].
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// --- Agents ---

func (a *App) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	var agents []models.Agent
	switch {
	case q.Get("type") != "":
		t, err := models.ParseAgentType(q.Get("type"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		agents = a.Agents.AgentsByType(t)
	case q.Get("active") == "true":
		agents = a.Agents.ActiveAgents()
	default:
		agents = a.Agents.Agents()
	}
	if q.Get("type") != "" && q.Get("active") == "true" {
		active := agents[:0]
		for _, ag := range agents {
			if ag.Status == models.AgentActive {
				active = append(active, ag)
			}
		}
		agents = active
	}
	writeJSON(w, agents)
}

func (a *App) handleAgent(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/agents/")
	if len(parts) == 0 || len(parts) > 2 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		switch parts[1] {
		case "actions":
			a.handleAgentAction(w, r, id)
		case "tasks":
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			writeJSON(w, a.Agents.TasksByAgent(id))
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		ag, ok := a.Agents.Agent(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "agent not found")
			return
		}
		writeJSON(w, ag)
	case http.MethodPatch:
		var body struct {
			Status string `json:"status"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		status, err := models.ParseAgentStatus(body.Status)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !a.Agents.UpdateAgentStatus(r.Context(), id, status) {
			writeJSONError(w, http.StatusNotFound, "agent not found")
			return
		}
		ag, _ := a.Agents.Agent(id)
		writeJSON(w, ag)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleAgentAction(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := a.Agents.Agent(id); !ok {
		writeJSONError(w, http.StatusNotFound, "agent not found")
		return
	}
	var body struct {
		Action string          `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	// the body is optional
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Action == "" {
		body.Action = "manual_trigger"
	}
	task := a.Agents.TriggerAgentAction(r.Context(), id, body.Action, body.Data)
	otel.RecordAgentAction(r.Context(), id, body.Action)
	writeJSON(w, task)
}

// --- Recommendations ---

func (a *App) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if p := r.URL.Query().Get("priority"); p != "" {
			priority, err := models.ParsePriority(p)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, a.Agents.RecommendationsByPriority(priority))
			return
		}
		writeJSON(w, a.Agents.Recommendations())
	case http.MethodPost:
		var body models.Recommendation
		if !decodeJSON(w, r, &body) {
			return
		}
		if err := validateRecommendation(body); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec := a.Agents.AddRecommendation(r.Context(), body)
		otel.RecordRecommendationOp(r.Context(), "add", string(rec.Priority))
		writeJSON(w, rec)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func validateRecommendation(r models.Recommendation) error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, errors.New("title required"))
	}
	if _, err := models.ParseRecommendationType(string(r.Type)); err != nil {
		errs = append(errs, err)
	}
	if _, err := models.ParsePriority(string(r.Priority)); err != nil {
		errs = append(errs, err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		errs = append(errs, errors.New("confidence must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

func (a *App) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/recommendations/")
	if len(parts) != 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if parts[0] == "process" {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		processed := a.Agents.ProcessAgentRecommendations(r.Context())
		otel.RecordCriticalProcessed(r.Context(), len(processed))
		if processed == nil {
			processed = []models.Recommendation{}
		}
		writeJSON(w, processed)
		return
	}
	if r.Method != http.MethodDelete {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !a.Agents.DismissRecommendation(r.Context(), parts[0]) {
		writeJSONError(w, http.StatusNotFound, "recommendation not found")
		return
	}
	otel.RecordRecommendationOp(r.Context(), "dismiss", "")
	writeJSON(w, map[string]any{"ok": true})
}

// --- Automation rules ---

func (a *App) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Agents.AutomationRules())
	case http.MethodPost:
		var body models.AutomationRule
		if !decodeJSON(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeJSONError(w, http.StatusBadRequest, "name required")
			return
		}
		if err := automation.ValidateSchedule(body.Schedule); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, a.Agents.AddAutomationRule(r.Context(), body))
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleRule(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/rules/")
	if len(parts) == 0 || len(parts) > 2 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rule, ok := a.Agents.AutomationRule(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeJSON(w, rule)
		return
	}
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var ok bool
	switch parts[1] {
	case "toggle":
		ok = a.Agents.ToggleAutomationRule(r.Context(), id)
	case "execute":
		ok = a.Agents.ExecuteAutomationRule(r.Context(), id)
		if ok {
			otel.RecordRuleExecution(r.Context(), id, "manual")
		}
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "rule not found")
		return
	}
	rule, _ := a.Agents.AutomationRule(id)
	writeJSON(w, rule)
}

// --- Tasks ---

func (a *App) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		tasks := a.Agents.Tasks()
		if agent := q.Get("agent"); agent != "" {
			tasks = a.Agents.TasksByAgent(agent)
		}
		if s := q.Get("status"); s != "" {
			status, err := models.ParseTaskStatus(s)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			filtered := tasks[:0]
			for _, t := range tasks {
				if t.Status == status {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		writeJSON(w, tasks)
	case http.MethodPost:
		var body models.AgentTask
		if !decodeJSON(w, r, &body) {
			return
		}
		if body.AgentID == "" || body.Type == "" {
			writeJSONError(w, http.StatusBadRequest, "agentId and type required")
			return
		}
		if body.Status != "" && !body.Status.Valid() {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid task status %q", body.Status))
			return
		}
		if body.Priority != "" && !body.Priority.Valid() {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid priority %q", body.Priority))
			return
		}
		task := a.Agents.AddTask(r.Context(), body)
		otel.RecordTaskOp(r.Context(), "create", string(task.Status))
		writeJSON(w, task)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleTask(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/tasks/")
	if len(parts) != 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		t, ok := a.Agents.Task(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, t)
	case http.MethodPatch:
		var body struct {
			Status string          `json:"status"`
			Result json.RawMessage `json:"result"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		status, err := models.ParseTaskStatus(body.Status)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !a.Agents.UpdateTaskStatus(r.Context(), id, status, body.Result) {
			writeJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		otel.RecordTaskOp(r.Context(), "update", string(status))
		t, _ := a.Agents.Task(id)
		writeJSON(w, t)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- Staff views ---

// staffFromRequest resolves the X-Staff-User header. ok is false when a response was written.
func (a *App) staffFromRequest(w http.ResponseWriter, r *http.Request) (models.Staff, bool) {
	user := strings.TrimSpace(r.Header.Get(StaffHeader))
	if user == "" {
		writeJSONError(w, http.StatusBadRequest, StaffHeader+" header required")
		return models.Staff{}, false
	}
	s, err := identity.Resolve(a.Home, user)
	if errors.Is(err, identity.ErrUnknownStaff) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return models.Staff{}, false
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return models.Staff{}, false
	}
	return s, true
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s, ok := a.staffFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, s)
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var role models.Role
	if q := r.URL.Query().Get("role"); q != "" {
		parsed, err := models.ParseRole(q)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		role = parsed
	} else {
		s, ok := a.staffFromRequest(w, r)
		if !ok {
			return
		}
		role = s.Role
	}
	writeJSON(w, BuildDashboard(a.Agents.Snapshot(), role))
}

// BuildDashboard summarizes snap for role: only agents of the role's types and their
// recommendations and open tasks are counted.
func BuildDashboard(snap models.Snapshot, role models.Role) models.Dashboard {
	types := make(map[models.AgentType]bool)
	for _, t := range identity.RoleAgentTypes(role) {
		types[t] = true
	}
	d := models.Dashboard{Role: role, Agents: []models.Agent{}, Recommendations: []models.Recommendation{}}
	visible := make(map[string]bool)
	for _, ag := range snap.Agents {
		if !types[ag.Type] {
			continue
		}
		visible[ag.ID] = true
		d.Agents = append(d.Agents, ag)
		if ag.Status == models.AgentActive {
			d.ActiveAgents++
		}
	}
	for _, rec := range snap.Recommendations {
		if !visible[rec.AgentID] {
			continue
		}
		d.Recommendations = append(d.Recommendations, rec)
		if rec.Priority == models.PriorityCritical {
			d.CriticalCount++
		}
	}
	for _, rule := range snap.AutomationRules {
		if rule.Enabled {
			d.EnabledRules++
		}
	}
	for _, t := range snap.Tasks {
		if visible[t.AgentID] && !t.Status.Terminal() {
			d.OpenTasks++
		}
	}
	return d
}

func (a *App) handleI18n(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	lang = i18n.Match(lang)
	writeJSON(w, map[string]any{
		"lang":     lang,
		"dir":      i18n.Dir(lang),
		"messages": i18n.Dictionary(lang),
	})
}
