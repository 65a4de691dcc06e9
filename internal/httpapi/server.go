// Package httpapi serves the agent panel JSON API, the SSE stream and the embedded status page.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/agentstore"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/capabilities"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store/postgres"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/ui"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets permissive CORS headers in dev mode.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Staff-User, Accept-Language")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP app: where state lives, how the agent store behaves, and
// which middlewares are enabled.
type ServerOptions struct {
	Home         string
	Addr         string
	Dev          bool
	APIKey       string // if set, require X-API-Key header or query api_key
	DBDriver     string // "sqlite" (default), "postgres" or "memory"
	DBURL        string // for postgres: connection string (or set DATABASE_URL env)
	StorageKey   string // slot holding the snapshot; default models.DefaultStorageKey
	CatalogPath  string // optional catalog override; missing file means the embedded catalog
	ActionDelay  time.Duration
	AlertAgentID string
	// Notifier receives processed critical recommendations. Nil means capabilities.FromSettings
	// with SlackWebhookURL.
	Notifier        agentstore.Notifier
	SlackWebhookURL string
	MetricsHandler  http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP     bool         // if true, wrap handler with otelhttp for request metrics
	Logger          *slog.Logger
}

// App holds the HTTP server, SSE hub, agent store and its persistence.
type App struct {
	Server *http.Server
	Hub    *SSEHub
	Agents *agentstore.Store
	Slots  store.Store // nil for the memory driver
	Home   string

	opts ServerOptions
	log  *slog.Logger
	// listeners called with every store change event, after SSE publication
	onChange []func(agentstore.Event)
}

// OnChange registers fn to be called after each agent store change event. Register before serving.
func (a *App) OnChange(fn func(agentstore.Event)) {
	a.onChange = append(a.onChange, fn)
}

func openSlots(opts ServerOptions) (store.Store, error) {
	switch opts.DBDriver {
	case "memory":
		return nil, nil
	case "postgres":
		return postgres.Open(opts.DBURL)
	case "", "sqlite":
		return store.Open(opts.Home)
	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.DBDriver)
	}
}

// NewApp opens persistence, loads the agent store and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	slots, err := openSlots(opts)
	if err != nil {
		return nil, err
	}
	closeSlots := func() {
		if slots != nil {
			_ = slots.Close()
		}
	}

	var persister agentstore.Persister
	if slots != nil {
		persister = &store.SnapshotPersister{Store: slots, Key: opts.StorageKey}
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = capabilities.FromSettings(log, opts.SlackWebhookURL)
	}

	app := &App{Hub: NewSSEHub(), Slots: slots, Home: opts.Home, opts: opts, log: log}
	storeOpts := []agentstore.Option{
		agentstore.WithLogger(log),
		agentstore.WithNotifier(notifier),
		agentstore.WithOnChange(app.publish),
	}
	if opts.ActionDelay > 0 {
		storeOpts = append(storeOpts, agentstore.WithActionDelay(opts.ActionDelay))
	}
	if opts.AlertAgentID != "" {
		storeOpts = append(storeOpts, agentstore.WithAlertAgentID(opts.AlertAgentID))
	}
	if opts.CatalogPath != "" {
		cat, err := agentstore.LoadCatalog(opts.CatalogPath)
		if err != nil {
			closeSlots()
			return nil, err
		}
		if cat != nil {
			storeOpts = append(storeOpts, agentstore.WithCatalog(*cat))
		}
	}
	agents, err := agentstore.New(context.Background(), persister, storeOpts...)
	if err != nil {
		closeSlots()
		return nil, err
	}
	app.Agents = agents

	mux := http.NewServeMux()
	app.routes(mux)
	mux.Handle("/", ui.Handler())

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(log, handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "careagent")
	}
	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // /stream is long-lived
		IdleTimeout:       60 * time.Second,
	}
	return app, nil
}

// Close cancels pending agent actions and closes persistence. The owner calls it after the
// server has shut down.
func (a *App) Close() error {
	var errs []error
	if a.Agents != nil {
		errs = append(errs, a.Agents.Close())
	}
	if a.Slots != nil {
		errs = append(errs, a.Slots.Close())
		a.Slots = nil
	}
	return errors.Join(errs...)
}

func (a *App) publish(ev agentstore.Event) {
	a.Hub.Publish(ev)
	for _, fn := range a.onChange {
		fn(ev)
	}
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		log.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// getBootstrapID returns the install id from <home>/protected/bootstrap_id, creating it once.
func getBootstrapID(home string) string {
	if home == "" {
		return ""
	}
	protected := filepath.Join(home, "protected")
	_ = os.MkdirAll(protected, 0o755)
	path := filepath.Join(protected, "bootstrap_id")
	if b, err := os.ReadFile(path); err == nil {
		if s := string(bytes.TrimSpace(b)); s != "" {
			return s
		}
	}
	id := uuid.NewString()
	_ = os.WriteFile(path, []byte(id+"\n"), 0o644)
	return id
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// decodeJSON decodes the request body into v, writing a 400 and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
