package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all Deadline Cloud notifier configuration.
type Config struct {
	Poll          PollConfig          `mapstructure:"poll"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Credentials   CredentialsConfig   `mapstructure:"credentials"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Server        ServerConfig        `mapstructure:"server"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// PollConfig defines the poll loop.
type PollConfig struct {
	// Delay between cycles in seconds. Zero runs a single cycle.
	Delay int `mapstructure:"delay"`
}

// StorageConfig defines where alert records are kept.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	Prune   bool   `mapstructure:"prune"`
}

// CredentialsConfig points at the credentials file.
type CredentialsConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationsConfig defines how alerts are worded and addressed.
type NotificationsConfig struct {
	Locale        string `mapstructure:"locale"`
	GroupPrefix   string `mapstructure:"group_prefix"`
	TemplatesFile string `mapstructure:"templates_file"`
}

// AWSConfig selects the shared config profile and region.
type AWSConfig struct {
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

// ServerConfig defines the status server. An empty Listen disables it.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// AlertsConfig defines optional alert mirrors.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Dir returns the per-user notifier directory, ~/.deadline/notifications.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".deadline", "notifications")
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if _, err := os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	dir := Dir()
	v.SetDefault("poll.delay", 15)
	v.SetDefault("storage.backend", "json")
	v.SetDefault("storage.prune", true)
	v.SetDefault("credentials.path", filepath.Join(dir, "config_notifications.json"))
	v.SetDefault("notifications.group_prefix", "DeadlineCloud")
	v.SetDefault("server.listen", "")
	v.SetDefault("alerts.slack.channel", "#render-budgets")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", filepath.Join(dir, "notifier.log"))

	// Environment variables
	v.SetEnvPrefix("DCN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("storage.path")
	_ = v.BindEnv("notifications.locale")
	_ = v.BindEnv("notifications.templates_file")
	_ = v.BindEnv("aws.profile")
	_ = v.BindEnv("aws.region")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(dir, "notification_data.json")
		if cfg.Storage.Backend == "sqlite" {
			cfg.Storage.Path = filepath.Join(dir, "notification_data.db")
		}
	}

	return &cfg, nil
}
