package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/internal/server"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll budgets and notify ShotGrid about queues over their limit",
	RunE:  runPoller,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("delay", "d", 15, "Seconds between poll cycles; 0 runs a single cycle")
	runCmd.Flags().StringP("listen", "l", "", "Status server listen address (default from config, empty disables)")
}

func runPoller(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("delay") {
		cfg.Poll.Delay, _ = cmd.Flags().GetInt("delay")
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	if cfg.Poll.Delay < 0 {
		return fmt.Errorf("delay must not be negative: %d", cfg.Poll.Delay)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := initApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.store.Close()

	if cfg.Server.Listen != "" {
		srv := &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      server.NewServer(a.poller, a.store, a.registry, logger).Handler(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}

		go func() {
			logger.Info("status server started", "listen", cfg.Server.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server", "error", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server shutdown", "error", err)
			}
		}()
	}

	logger.Info("notifier started", "delay_seconds", cfg.Poll.Delay, "storage", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Deadline Cloud budget notifier running (delay %ds)\n", cfg.Poll.Delay)

	return a.poller.Run(ctx, time.Duration(cfg.Poll.Delay)*time.Second)
}
