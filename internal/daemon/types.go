package daemon

import (
	"log/slog"
	"time"
)

// StartOptions configures the daemon: where state lives, how it listens and how the agent
// store behaves.
type StartOptions struct {
	Home            string
	Host            string
	Port            int
	Dev             bool
	PprofAddr       string
	DBDriver        string        // "sqlite" (default), "postgres" or "memory"
	DBURL           string        // for postgres: connection string (or DATABASE_URL env)
	StorageKey      string        // slot holding the agent store snapshot
	CatalogPath     string        // optional seed catalog; missing file means the embedded one
	ActionDelay     time.Duration // how long a triggered agent stays processing
	AlertAgentID    string        // agent whose critical recommendations are escalated
	ProcessInterval time.Duration // how often critical recommendations are escalated; 0 disables
	APIKey          string
	SlackWebhookURL string
	EnableOtel      bool // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE/agent instrumentation)
	Logger          *slog.Logger
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
