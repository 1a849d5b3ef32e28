package cli

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and reset recorded budget alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets that have been notified and the limit they were notified at",
	RunE:  runAlertsList,
}

var alertsResetCmd = &cobra.Command{
	Use:   "reset [budget-id...]",
	Short: "Forget recorded alerts so the budgets are notified again",
	RunE:  runAlertsReset,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsResetCmd)

	alertsResetCmd.Flags().Bool("all", false, "Forget every recorded alert")
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No alerts recorded.")
		return nil
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := pterm.TableData{{"BUDGET", "LIMIT"}}
	for _, id := range ids {
		data = append(data, []string{id, fmt.Sprintf("$%.2f", records[id].Limit)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runAlertsReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return fmt.Errorf("specify budget IDs or --all")
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids := args
	if all {
		records, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}
		ids = make([]string, 0, len(records))
		for id := range records {
			ids = append(ids, id)
		}
	}

	if err := store.Delete(cmd.Context(), ids...); err != nil {
		return fmt.Errorf("reset alerts: %w", err)
	}

	pterm.Success.Printfln("Reset %d alert record(s)", len(ids))
	return nil
}
