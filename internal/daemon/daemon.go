package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/httpapi"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/otel"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

var errNotRunning = errors.New("careagent is not running")

// StartForeground serves the agent panel until ctx is done or the server fails.
func StartForeground(ctx context.Context, opts StartOptions) error {
	if opts.Home == "" {
		return errors.New("home is required")
	}
	if opts.Port == 0 {
		opts.Port = models.DefaultPort
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(protectedDir(opts.Home), 0o755); err != nil {
		return err
	}

	// Singleton lock, released on exit.
	lock, err := acquireLock(lockPath(opts.Home))
	if err != nil {
		return err
	}
	defer lock.release()

	startPprof(opts.PprofAddr, log)

	// Postgres migrates on connect.
	if opts.DBDriver == "" || opts.DBDriver == "sqlite" {
		if err := store.EnsureSchema(opts.Home); err != nil {
			return err
		}
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	if err := checkPortAvailable(addr); err != nil {
		return err
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidPath(opts.Home), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return err
	}
	_ = os.WriteFile(addrPath(opts.Home), []byte(addr+"\n"), 0o644)
	defer func() {
		_ = os.Remove(pidPath(opts.Home))
		_ = os.Remove(addrPath(opts.Home))
	}()

	srvOpts := httpapi.ServerOptions{
		Home:            opts.Home,
		Addr:            addr,
		Dev:             opts.Dev,
		APIKey:          opts.APIKey,
		DBDriver:        opts.DBDriver,
		DBURL:           opts.DBURL,
		StorageKey:      opts.StorageKey,
		CatalogPath:     opts.CatalogPath,
		ActionDelay:     opts.ActionDelay,
		AlertAgentID:    opts.AlertAgentID,
		SlackWebhookURL: opts.SlackWebhookURL,
		Logger:          log,
	}
	if opts.EnableOtel {
		metricsHandler, err := otel.InitMeterProvider(ctx, otel.Deployment{
			StoreDriver:  opts.DBDriver,
			AlertAgentID: opts.AlertAgentID,
		})
		if err != nil {
			log.Warn("otel init failed, using plain metrics", "err", err)
		} else {
			srvOpts.MetricsHandler = metricsHandler
			srvOpts.UseOtelHTTP = true
		}
	}
	app, err := httpapi.NewApp(srvOpts)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	if srvOpts.MetricsHandler != nil {
		if err := otel.InitMetricsWithAgentStatus(ctx, agentStatusCounts(app)); err != nil {
			log.Warn("otel instruments init failed", "err", err)
		}
	}

	rules := startRuleScheduler(app, log)
	defer func() { <-rules.Stop().Done() }()

	log.Info("daemon starting", "addr", addr, "home", opts.Home, "db", srvOpts.DBDriver)
	errCh := make(chan error, 1)
	go func() {
		go runRecommendationLoop(ctx, app, opts.ProcessInterval, log)
		errCh <- app.Server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = app.Server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// daemonArgs builds the hidden "daemon" command line for a background child. Secrets travel in
// the environment instead, see daemonEnv.
func daemonArgs(opts StartOptions) []string {
	args := []string{
		"daemon",
		"--home", opts.Home,
		"--host", opts.Host,
		"--port", strconv.Itoa(opts.Port),
	}
	if opts.DBDriver != "" {
		args = append(args, "--db", opts.DBDriver)
	}
	if opts.StorageKey != "" {
		args = append(args, "--storage-key", opts.StorageKey)
	}
	if opts.CatalogPath != "" {
		args = append(args, "--catalog", opts.CatalogPath)
	}
	if opts.AlertAgentID != "" {
		args = append(args, "--alert-agent", opts.AlertAgentID)
	}
	// Always forwarded so zero values still override config.yaml in the child.
	args = append(args,
		"--action-delay="+opts.ActionDelay.String(),
		"--process-interval="+opts.ProcessInterval.String(),
		"--dev="+strconv.FormatBool(opts.Dev),
	)
	if opts.PprofAddr != "" {
		args = append(args, "--pprof", opts.PprofAddr)
	}
	return append(args, "--otel="+strconv.FormatBool(opts.EnableOtel))
}

func daemonEnv(opts StartOptions) []string {
	env := os.Environ()
	if opts.APIKey != "" {
		env = append(env, "CAREAGENT_API_KEY="+opts.APIKey)
	}
	if opts.DBURL != "" {
		env = append(env, "CAREAGENT_DATABASE_URL="+opts.DBURL)
	}
	if opts.SlackWebhookURL != "" {
		env = append(env, "CAREAGENT_SLACK_WEBHOOK_URL="+opts.SlackWebhookURL)
	}
	return env
}

// StartBackground re-executes the current binary as a detached daemon and returns its pid.
func StartBackground(ctx context.Context, opts StartOptions) (int, error) {
	if opts.Home == "" {
		return 0, errors.New("home is required")
	}
	if opts.Port == 0 {
		opts.Port = models.DefaultPort
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(protectedDir(opts.Home), 0o755); err != nil {
		return 0, err
	}

	// Best-effort: refuse to start if already running.
	if st, _ := Status(ctx, opts.Home); st.Running {
		return 0, fmt.Errorf("careagent already running (pid %d)", st.PID)
	}

	stderr, err := os.OpenFile(LogPath(opts.Home), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	// Kept open for the child's lifetime.

	cmd := exec.Command(exe, daemonArgs(opts)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.Env = daemonEnv(opts)
	setDaemonSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	// Wait briefly for the pid file to appear.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := Status(ctx, opts.Home); st.Running {
			return st.PID, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cmd.Process.Pid, nil
}

// Stop signals a running daemon and waits up to 15s for it to exit before killing it.
// It reports whether a daemon was running.
func Stop(ctx context.Context, home string) (bool, error) {
	st, err := Status(ctx, home)
	if err != nil {
		return false, err
	}
	if !st.Running {
		return false, nil
	}

	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return false, errNotRunning
	}
	if err := signalTerm(proc); err != nil {
		return false, err
	}

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if st2, _ := Status(ctx, home); !st2.Running {
			return true, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	_ = proc.Kill()
	return true, nil
}

// Status reads the pid and addr files. A stale pid file is removed.
func Status(ctx context.Context, home string) (StatusInfo, error) {
	pb, err := os.ReadFile(pidPath(home))
	if err != nil {
		return StatusInfo{Running: false}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pb)))
	if err != nil || pid <= 0 {
		return StatusInfo{Running: false}, nil
	}
	if !processExists(pid) {
		_ = os.Remove(pidPath(home))
		return StatusInfo{Running: false}, nil
	}

	addr := ""
	if ab, err := os.ReadFile(addrPath(home)); err == nil {
		addr = strings.TrimSpace(string(ab))
	}
	if addr == "" {
		addr = "unknown"
	}
	return StatusInfo{Running: true, PID: pid, Addr: addr}, nil
}

func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s is already in use", addr)
	}
	_ = ln.Close()
	return nil
}
