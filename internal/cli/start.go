package cli

import (
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	var (
		flags      serveFlags
		foreground bool
		noBrowser  bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start careagent (API, web UI and background workers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			opts, settings, err := flags.options(cmd, home)
			if err != nil {
				return err
			}

			host := opts.Host
			if host == "0.0.0.0" || host == "" {
				host = "localhost"
			}
			ui := (&url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(opts.Port))}).String()

			if foreground {
				opts.Logger = newLogger(settings.LogLevel)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting careagent in foreground on %s\n", ui)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "careagent started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "UI: %s\n", ui)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", daemon.LogPath(home))

			if !noBrowser {
				_ = openBrowser(ui)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the web UI")
	return cmd
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", u).Start()
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return err
		}
		return exec.Command("xdg-open", u).Start()
	}
}
