package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/spf13/cobra"
)

const apiKeyEnv = config.EnvPrefix + "_API_KEY"

func newApikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the API key that protects the agent panel API",
	}
	cmd.AddCommand(newApikeyGenerateCmd())
	return cmd
}

func newApikeyGenerateCmd() *cobra.Command {
	var (
		envFile string
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random API key for the daemon and its clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			key := hex.EncodeToString(b)

			if save && envFile == "" {
				// start and daemon load <home>/.env before reading settings.
				envFile = filepath.Join(config.MustHomeFrom(cmd.Context()), ".env")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Generated API key:")
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, "  "+key)
			_, _ = fmt.Fprintln(out)

			if envFile != "" {
				if err := appendEnv(envFile, apiKeyEnv, key); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Appended %s to %s\n", apiKeyEnv, envFile)
				_, _ = fmt.Fprintln(out, "Restart the daemon: careagent stop && careagent start")
			} else {
				_, _ = fmt.Fprintf(out, "Daemon: export %s=%s, or rerun with --save to write <home>/.env\n", apiKeyEnv, key)
			}
			_, _ = fmt.Fprintln(out, "Dashboards and scripts: send header X-API-Key: <key> (or ?api_key=<key> for /stream)")
			_, _ = fmt.Fprintln(out, "CLI from another shell: careagent --api-key <key> agent list")
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env", "", "Append the key to this env file")
	cmd.Flags().BoolVar(&save, "save", false, "Append the key to <home>/.env, which start loads")
	return cmd
}

func appendEnv(path, name, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := f.WriteString(name + "=" + value + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
