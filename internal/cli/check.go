package cli

import (
	"fmt"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/deadline"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/tracker"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show budget status without sending notifications",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx := cmd.Context()
	dl, err := deadline.NewFromConfig(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dedup := storage.NewDedup(store, logger)
	formatter := tracker.NewCurrencyFormatter(cfg.Notifications.Locale)

	farms, err := dl.ListFarms(ctx)
	if err != nil {
		return fmt.Errorf("list farms: %w", err)
	}
	if len(farms) == 0 {
		pterm.Warning.Println("No farms visible to these AWS credentials.")
		return nil
	}

	data := pterm.TableData{{"FARM", "BUDGET", "QUEUE", "STATUS", "USAGE", "LIMIT", "ALERT"}}
	for _, farm := range farms {
		budgets, err := dl.ListBudgets(ctx, farm.ID)
		if err != nil {
			pterm.Error.Printfln("%s: %v", farm.DisplayName, err)
			continue
		}

		over := make(map[string]bool)
		for _, b := range tracker.SelectOverLimit(budgets, logger) {
			over[b.ID] = true
		}

		for _, b := range budgets {
			alert := "-"
			if over[b.ID] {
				alert = pterm.FgRed.Sprint("over limit")
				if dedup.WasAlreadyNotified(ctx, b.ID, b.Limit) == model.AlertStateNotified {
					alert = pterm.FgYellow.Sprint("over limit (notified)")
				}
			}

			data = append(data, []string{
				farm.DisplayName,
				b.DisplayName,
				b.QueueID,
				string(b.Status),
				formatter.Format(b.Usage),
				formatter.Format(b.Limit),
				alert,
			})
		}
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
