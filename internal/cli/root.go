package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/internal/config"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/internal/credentials"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/deadline"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/shotgrid"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dcn",
	Short: "Deadline Cloud budget notifier - ShotGrid notes for queues over budget",
	Long: `Deadline Cloud budget notifier polls the budgets of every farm in the configured
studios and posts a ShotGrid note to the queue's notification group when a budget
reaches its limit. Each budget is notified once per limit value.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.deadline/notifications/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger writing to stderr and, when
// configured, to the log file. The returned func closes the file.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	var fileErr error
	if cfg.Logging.File != "" {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			fileErr = err
		} else {
			out = io.MultiWriter(os.Stderr, f)
			closeFn = func() { f.Close() }
		}
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if fileErr != nil {
		logger.Warn("logging to console only", "error", fileErr)
	}
	return logger, closeFn
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
}

// initMirrors creates the optional Slack and webhook notifiers from config.
func initMirrors(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// app holds the wired components of a poller process.
type app struct {
	store    storage.Storage
	poller   *tracker.Poller
	registry *prometheus.Registry
}

// initApp wires credentials, clients, storage and the poller. ShotGrid
// login and the credentials file are deferred to each poll cycle.
func initApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	dl, err := deadline.NewFromConfig(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	composer, err := alerts.LoadTemplates(cfg.Notifications.TemplatesFile)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sendMetrics := alerts.NewMetrics(registry)

	sg := shotgrid.NewSession(func() shotgrid.Credentials {
		return credentials.Load(cfg.Credentials.Path, logger).ShotGrid
	})
	groups := alerts.NewShotGridNotifier(sg, cfg.Notifications.GroupPrefix, logger)
	var mirrors []alerts.Notifier
	for _, m := range initMirrors(cfg) {
		mirrors = append(mirrors, sendMetrics.Wrap(m))
	}

	formatter := tracker.NewCurrencyFormatter(cfg.Notifications.Locale)
	logger.Debug("currency locale", "locale", formatter.Locale().String())

	dedup := storage.NewDedup(store, logger)
	notifier := tracker.NewBudgetNotifier(
		tracker.NewScanResolver(dl, logger),
		dedup,
		sendMetrics.Wrap(groups),
		logger,
		tracker.WithMirrors(mirrors...),
		tracker.WithFormatter(formatter),
		tracker.WithComposer(composer),
	)

	poller := tracker.NewPoller(dl, nil, notifier, dedup, tracker.PollerConfig{
		Groups:  groups,
		Metrics: tracker.NewMetrics(registry),
		Prune:   cfg.Storage.Prune,
		Studios: func() []string {
			return credentials.Load(cfg.Credentials.Path, logger).StudioHostnames
		},
	}, logger)

	return &app{store: store, poller: poller, registry: registry}, nil
}
