package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CAREAGENT_PORT.
const EnvPrefix = "CAREAGENT"

// Settings are the daemon settings read from <home>/config.yaml and CAREAGENT_* env.
// Command-line flags are applied on top by the caller.
type Settings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DBDriver        string        `mapstructure:"db_driver"`
	DatabaseURL     string        `mapstructure:"database_url"`
	StorageKey      string        `mapstructure:"storage_key"`
	ActionDelay     time.Duration `mapstructure:"action_delay"`
	AlertAgentID    string        `mapstructure:"alert_agent_id"`
	ProcessInterval time.Duration `mapstructure:"process_interval"`
	CatalogPath     string        `mapstructure:"catalog_path"`
	APIKey          string        `mapstructure:"api_key"`
	Dev             bool          `mapstructure:"dev"`
	Pprof           bool          `mapstructure:"pprof"`
	SlackWebhookURL string        `mapstructure:"slack_webhook_url"`
	Language        string        `mapstructure:"language"`
	LogLevel        string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", models.DefaultPort)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("database_url", "")
	v.SetDefault("storage_key", models.DefaultStorageKey)
	v.SetDefault("action_delay", time.Duration(models.DefaultActionDelayMS)*time.Millisecond)
	v.SetDefault("alert_agent_id", models.DefaultAlertAgentID)
	v.SetDefault("process_interval", 30*time.Second)
	v.SetDefault("catalog_path", "")
	v.SetDefault("api_key", "")
	v.SetDefault("dev", false)
	v.SetDefault("pprof", false)
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("language", "en")
	v.SetDefault("log_level", "info")
}

// LoadSettings reads <home>/config.yaml if present and applies CAREAGENT_* env overrides.
// SLACK_WEBHOOK_URL and DATABASE_URL are honoured without the prefix.
func LoadSettings(home string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("slack_webhook_url", EnvPrefix+"_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL")
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if home != "" {
		v.SetConfigFile(SettingsPath(home))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Settings{}, fmt.Errorf("read %s: %w", SettingsPath(home), err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.CatalogPath == "" && home != "" {
		s.CatalogPath = filepath.Join(home, "catalog.yaml")
	}
	return s, s.Validate()
}

// Validate rejects settings the daemon cannot start with.
func (s Settings) Validate() error {
	var errs []error
	switch s.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("db_driver: unknown driver %q", s.DBDriver))
	}
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port: %d out of range", s.Port))
	}
	if s.ActionDelay < 0 {
		errs = append(errs, errors.New("action_delay: must not be negative"))
	}
	if s.ProcessInterval < 0 {
		errs = append(errs, errors.New("process_interval: must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns host:port.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SettingsPath returns <home>/config.yaml.
func SettingsPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// LoadEnvFiles loads .env style files into the process environment. Variables already set win.
// Missing files are skipped; other errors are returned.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}
