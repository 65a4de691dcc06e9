// Package capabilities holds outbound notification integrations used when critical
// recommendations are processed.
package capabilities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Capability is an integration that can notify (e.g. Slack, the daemon log).
type Capability interface {
	Name() string
	// Notify sends a message to the default target (e.g. Slack channel).
	Notify(ctx context.Context, message string) error
}

// Registry holds loaded capabilities by name. It fans a message out to all of them.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// FromSettings returns a registry with the log notifier and, when slackWebhookURL is set, Slack.
func FromSettings(log *slog.Logger, slackWebhookURL string) *Registry {
	reg := NewRegistry()
	reg.Register("log", LogNotifier{Logger: log})
	if slackWebhookURL != "" {
		reg.Register("slack", SlackWebhook{WebhookURL: slackWebhookURL, Username: "careagent"})
	}
	return reg
}

func (r *Registry) Register(name string, c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[name] = c
}

func (r *Registry) Get(name string) Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps[name]
}

// Names returns registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caps))
	for n := range r.caps {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NotifyOne sends message through the named capability.
func (r *Registry) NotifyOne(ctx context.Context, name, message string) error {
	c := r.Get(name)
	if c == nil {
		return fmt.Errorf("capability %q not found", name)
	}
	return c.Notify(ctx, message)
}

// Notify sends message through every registered capability and joins their errors.
func (r *Registry) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.NotifyOne(ctx, name, message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes messages to the structured log.
type LogNotifier struct {
	Logger *slog.Logger // nil means slog.Default()
}

func (LogNotifier) Name() string { return "log" }

func (l LogNotifier) Notify(ctx context.Context, message string) error {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log.WarnContext(ctx, "care team alert", "message", message)
	return nil
}

// SlackWebhook sends messages to a Slack channel via incoming webhook URL.
type SlackWebhook struct {
	WebhookURL string
	Channel    string       // optional override
	Username   string       // optional
	Client     *http.Client // nil means http.DefaultClient
}

func (s SlackWebhook) Name() string { return "slack" }

func (s SlackWebhook) Notify(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not set")
	}
	payload := map[string]any{"text": message}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	if s.Username != "" {
		payload["username"] = s.Username
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
