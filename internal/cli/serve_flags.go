package cli

import (
	"path/filepath"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/spf13/cobra"
)

// serveFlags are shared by start and the hidden daemon command. Flags that were set on the
// command line win over <home>/config.yaml and CAREAGENT_* env.
type serveFlags struct {
	host            string
	port            int
	dev             bool
	pprofAddr       string
	envFile         string
	dbDriver        string
	dbURL           string
	storageKey      string
	catalogPath     string
	actionDelay     time.Duration
	alertAgentID    string
	processInterval time.Duration
	enableOtel      bool
}

func (f *serveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.host, "host", "127.0.0.1", "Listen host")
	fs.IntVar(&f.port, "port", 3650, "Port for the API and web UI")
	fs.BoolVar(&f.dev, "dev", false, "Enable dev mode (permissive CORS)")
	fs.StringVar(&f.pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	fs.StringVar(&f.envFile, "env-file", "", "Load env vars from this file before reading settings (default: <home>/.env)")
	fs.StringVar(&f.dbDriver, "db", "sqlite", "Store driver: sqlite, postgres or memory")
	fs.StringVar(&f.dbURL, "db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	fs.StringVar(&f.storageKey, "storage-key", "", "Slot holding the agent store snapshot")
	fs.StringVar(&f.catalogPath, "catalog", "", "Seed catalog YAML (default: <home>/catalog.yaml when present)")
	fs.DurationVar(&f.actionDelay, "action-delay", 2*time.Second, "How long a triggered agent stays processing")
	fs.StringVar(&f.alertAgentID, "alert-agent", "", "Agent whose critical recommendations are escalated")
	fs.DurationVar(&f.processInterval, "process-interval", 30*time.Second, "How often critical recommendations are escalated (0 disables)")
	fs.BoolVar(&f.enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE/agent instrumentation)")
}

// options loads env files and settings for home and applies the flags that were set.
func (f *serveFlags) options(cmd *cobra.Command, home string) (daemon.StartOptions, config.Settings, error) {
	if err := config.LoadEnvFiles(f.envFile, filepath.Join(home, ".env")); err != nil {
		return daemon.StartOptions{}, config.Settings{}, err
	}
	s, err := config.LoadSettings(home)
	if err != nil {
		return daemon.StartOptions{}, config.Settings{}, err
	}
	changed := cmd.Flags().Changed
	if changed("host") {
		s.Host = f.host
	}
	if changed("port") {
		s.Port = f.port
	}
	if changed("dev") {
		s.Dev = f.dev
	}
	if changed("db") {
		s.DBDriver = f.dbDriver
	}
	if changed("db-url") {
		s.DatabaseURL = f.dbURL
	}
	if changed("storage-key") {
		s.StorageKey = f.storageKey
	}
	if changed("catalog") {
		s.CatalogPath = f.catalogPath
	}
	if changed("action-delay") {
		s.ActionDelay = f.actionDelay
	}
	if changed("alert-agent") {
		s.AlertAgentID = f.alertAgentID
	}
	if changed("process-interval") {
		s.ProcessInterval = f.processInterval
	}
	if err := s.Validate(); err != nil {
		return daemon.StartOptions{}, config.Settings{}, err
	}

	pprofAddr := f.pprofAddr
	if pprofAddr == "" && s.Pprof {
		pprofAddr = "127.0.0.1:6060"
	}
	return daemon.StartOptions{
		Home:            home,
		Host:            s.Host,
		Port:            s.Port,
		Dev:             s.Dev,
		PprofAddr:       pprofAddr,
		DBDriver:        s.DBDriver,
		DBURL:           s.DatabaseURL,
		StorageKey:      s.StorageKey,
		CatalogPath:     s.CatalogPath,
		ActionDelay:     s.ActionDelay,
		AlertAgentID:    s.AlertAgentID,
		ProcessInterval: s.ProcessInterval,
		APIKey:          s.APIKey,
		SlackWebhookURL: s.SlackWebhookURL,
		EnableOtel:      f.enableOtel,
	}, s, nil
}
