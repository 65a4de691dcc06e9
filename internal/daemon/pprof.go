package daemon

import (
	"log/slog"
	"net/http"

	_ "net/http/pprof"
)

// startPprof serves the DefaultServeMux pprof handlers on addr. Empty addr disables it.
func startPprof(addr string, log *slog.Logger) {
	if addr == "" {
		return
	}
	log.Info("pprof listening", "addr", addr)
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Info("pprof server stopped", "addr", addr, "err", err)
		}
	}()
}
