package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/cli"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
)

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	return run(ctx, args, os.Stderr)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	root := cli.NewRootCmd(Version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "careagent:", err.Error())
		if hint := errorHint(err); hint != "" {
			_, _ = fmt.Fprintln(stderr, "hint:", hint)
		}
		return 1
	}
	return 0
}

// errorHint suggests a next step for failures talking to the daemon.
func errorHint(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return "pass --api-key or set CAREAGENT_API_KEY to the daemon's key"
		case http.StatusNotFound:
			return "check the id with the matching list command, e.g. `careagent agent list`"
		}
		return ""
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "is the daemon running? start it with `careagent start` or point --server at it"
	}
	return ""
}
