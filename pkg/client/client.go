// Package client provides a Go SDK for the careagent HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// Client calls the careagent HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:3650"
	APIKey     string       // optional; sent as X-API-Key
	StaffUser  string       // optional; sent as X-Staff-User for /me and /dashboard
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:3650").
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	if c.StaffUser != "" {
		req.Header.Set("X-Staff-User", c.StaffUser)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func withQuery(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*models.Config, error) {
	var out models.Config
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// Snapshot returns the whole agent panel state.
func (c *Client) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var out models.Snapshot
	err := c.doJSON(ctx, http.MethodGet, "/snapshot", nil, &out)
	return &out, err
}

// AgentFilter narrows ListAgents. Zero value lists every agent.
type AgentFilter struct {
	Type       models.AgentType
	ActiveOnly bool
}

// ListAgents returns agents matching f.
func (c *Client) ListAgents(ctx context.Context, f AgentFilter) ([]models.Agent, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.ActiveOnly {
		q.Set("active", "true")
	}
	var out []models.Agent
	err := c.doJSON(ctx, http.MethodGet, withQuery("/agents", q), nil, &out)
	return out, err
}

// GetAgent returns one agent by id.
func (c *Client) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var out models.Agent
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(id), nil, &out)
	return &out, err
}

// UpdateAgentStatus sets an agent's status and returns the updated agent.
func (c *Client) UpdateAgentStatus(ctx context.Context, id string, status models.AgentStatus) (*models.Agent, error) {
	var out models.Agent
	err := c.doJSON(ctx, http.MethodPatch, "/agents/"+url.PathEscape(id), map[string]string{"status": string(status)}, &out)
	return &out, err
}

// TriggerAction starts an action on an agent and returns the created task. data may be nil.
func (c *Client) TriggerAction(ctx context.Context, id, action string, data json.RawMessage) (*models.AgentTask, error) {
	body := map[string]any{"action": action}
	if len(data) > 0 {
		body["data"] = data
	}
	var out models.AgentTask
	err := c.doJSON(ctx, http.MethodPost, "/agents/"+url.PathEscape(id)+"/actions", body, &out)
	return &out, err
}

// AgentTasks returns the tasks recorded for an agent.
func (c *Client) AgentTasks(ctx context.Context, id string) ([]models.AgentTask, error) {
	var out []models.AgentTask
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(id)+"/tasks", nil, &out)
	return out, err
}

// ListRecommendations returns recommendations, newest first. Empty priority lists all.
func (c *Client) ListRecommendations(ctx context.Context, priority models.Priority) ([]models.Recommendation, error) {
	q := url.Values{}
	if priority != "" {
		q.Set("priority", string(priority))
	}
	var out []models.Recommendation
	err := c.doJSON(ctx, http.MethodGet, withQuery("/recommendations", q), nil, &out)
	return out, err
}

// AddRecommendation creates a recommendation; the server assigns id and timestamp.
func (c *Client) AddRecommendation(ctx context.Context, r models.Recommendation) (*models.Recommendation, error) {
	var out models.Recommendation
	err := c.doJSON(ctx, http.MethodPost, "/recommendations", r, &out)
	return &out, err
}

// DismissRecommendation removes a recommendation.
func (c *Client) DismissRecommendation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/recommendations/"+url.PathEscape(id), nil, nil)
}

// ProcessRecommendations escalates critical recommendations and returns the ones processed.
func (c *Client) ProcessRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	var out []models.Recommendation
	err := c.doJSON(ctx, http.MethodPost, "/recommendations/process", nil, &out)
	return out, err
}

func (c *Client) ListRules(ctx context.Context) ([]models.AutomationRule, error) {
	var out []models.AutomationRule
	err := c.doJSON(ctx, http.MethodGet, "/rules", nil, &out)
	return out, err
}

func (c *Client) GetRule(ctx context.Context, id string) (*models.AutomationRule, error) {
	var out models.AutomationRule
	err := c.doJSON(ctx, http.MethodGet, "/rules/"+url.PathEscape(id), nil, &out)
	return &out, err
}

// AddRule creates an automation rule. Schedule, when set, must be a six-field cron expression.
func (c *Client) AddRule(ctx context.Context, r models.AutomationRule) (*models.AutomationRule, error) {
	var out models.AutomationRule
	err := c.doJSON(ctx, http.MethodPost, "/rules", r, &out)
	return &out, err
}

// ToggleRule flips a rule's enabled flag and returns the rule.
func (c *Client) ToggleRule(ctx context.Context, id string) (*models.AutomationRule, error) {
	var out models.AutomationRule
	err := c.doJSON(ctx, http.MethodPost, "/rules/"+url.PathEscape(id)+"/toggle", nil, &out)
	return &out, err
}

// ExecuteRule records one execution of a rule and returns the rule.
func (c *Client) ExecuteRule(ctx context.Context, id string) (*models.AutomationRule, error) {
	var out models.AutomationRule
	err := c.doJSON(ctx, http.MethodPost, "/rules/"+url.PathEscape(id)+"/execute", nil, &out)
	return &out, err
}

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	AgentID string
	Status  models.TaskStatus
}

func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]models.AgentTask, error) {
	q := url.Values{}
	if f.AgentID != "" {
		q.Set("agent", f.AgentID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	var out []models.AgentTask
	err := c.doJSON(ctx, http.MethodGet, withQuery("/tasks", q), nil, &out)
	return out, err
}

func (c *Client) GetTask(ctx context.Context, id string) (*models.AgentTask, error) {
	var out models.AgentTask
	err := c.doJSON(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &out)
	return &out, err
}

// AddTask creates a task; status defaults to pending.
func (c *Client) AddTask(ctx context.Context, t models.AgentTask) (*models.AgentTask, error) {
	var out models.AgentTask
	err := c.doJSON(ctx, http.MethodPost, "/tasks", t, &out)
	return &out, err
}

// UpdateTaskStatus sets a task's status and optional result.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, result json.RawMessage) (*models.AgentTask, error) {
	body := map[string]any{"status": status}
	if len(result) > 0 {
		body["result"] = result
	}
	var out models.AgentTask
	err := c.doJSON(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), body, &out)
	return &out, err
}

// Dashboard returns the role view. Empty role uses StaffUser's role.
func (c *Client) Dashboard(ctx context.Context, role models.Role) (*models.Dashboard, error) {
	q := url.Values{}
	if role != "" {
		q.Set("role", string(role))
	}
	var out models.Dashboard
	err := c.doJSON(ctx, http.MethodGet, withQuery("/dashboard", q), nil, &out)
	return &out, err
}

// Me returns the staff member named by StaffUser.
func (c *Client) Me(ctx context.Context) (*models.Staff, error) {
	var out models.Staff
	err := c.doJSON(ctx, http.MethodGet, "/me", nil, &out)
	return &out, err
}

// Messages is the /i18n response.
type Messages struct {
	Lang     string            `json:"lang"`
	Dir      string            `json:"dir"`
	Messages map[string]string `json:"messages"`
}

// I18n returns UI strings for lang (a tag or Accept-Language value).
func (c *Client) I18n(ctx context.Context, lang string) (*Messages, error) {
	q := url.Values{}
	if lang != "" {
		q.Set("lang", lang)
	}
	var out Messages
	err := c.doJSON(ctx, http.MethodGet, withQuery("/i18n", q), nil, &out)
	return &out, err
}
